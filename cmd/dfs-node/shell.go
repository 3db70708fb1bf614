package main

import (
	"fmt"
	"sort"
	"strings"

	"tarun-kavipurapu/lan-dfs/node"
	"tarun-kavipurapu/lan-dfs/pkg/protocol"

	"github.com/c-bata/go-prompt"
)

type shell struct {
	node       *node.Node
	restoreDir string
	quit       bool
}

func (s *shell) execute(in string) {
	blocks := strings.Fields(strings.TrimSpace(in))
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		fmt.Println("Stopping node...")
		s.quit = true
	case "status":
		fmt.Print(s.node.Status())
	case "peers":
		peers := s.node.Peers()
		if len(peers) == 0 {
			fmt.Println("No peers known.")
			return
		}
		for _, p := range peers {
			fmt.Printf("- %s @ %s\n", p.NodeID, p.Addr())
		}
	case "files":
		files, err := s.node.Files()
		if err != nil {
			fmt.Printf("Error listing files: %v\n", err)
			return
		}
		if len(files) == 0 {
			fmt.Println("No files stored.")
			return
		}
		ids := make([]string, 0, len(files))
		for id := range files {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			marker := ""
			if !s.node.HasChunk(id) {
				marker = " (chunk missing)"
			}
			fmt.Printf("- %s  %s%s\n", id, files[id].FileName, marker)
		}
	case "store":
		if len(blocks) < 2 {
			fmt.Println("Usage: store <file_path>")
			return
		}
		fileId, err := s.node.StoreFile(blocks[1])
		if err != nil {
			fmt.Printf("Error storing file: %v\n", err)
			return
		}
		fmt.Printf("Stored as %s\n", fileId)
	case "get":
		if len(blocks) < 2 {
			fmt.Println("Usage: get <file_id>")
			return
		}
		asked := s.node.RequestFile(blocks[1])
		fmt.Printf("Requested from %d peers.\n", asked)
	case "restore":
		if len(blocks) < 2 {
			fmt.Println("Usage: restore <file_id> [dest_dir]")
			return
		}
		dir := s.restoreDir
		if len(blocks) > 2 {
			dir = blocks[2]
		}
		path, err := s.node.Restore(blocks[1], dir)
		if err != nil {
			fmt.Printf("Error restoring file: %v\n", err)
			return
		}
		fmt.Printf("Restored to %s\n", path)
	case "delete":
		if len(blocks) < 2 {
			fmt.Println("Usage: delete <file_id>")
			return
		}
		removed, err := s.node.DeleteFile(blocks[1])
		if err != nil {
			fmt.Printf("Error deleting file: %v\n", err)
		} else if !removed {
			fmt.Println("Nothing to delete.")
		} else {
			fmt.Println("Deleted.")
		}
	case "ping":
		if len(blocks) < 2 {
			fmt.Println("Usage: ping <host:port>")
			return
		}
		host, port, err := splitHostPort(blocks[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		s.node.SendPing(protocol.PeerInfo{Host: host, Port: port})
		fmt.Println("PING sent.")
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  status                  - Show node status")
		fmt.Println("  peers                   - List known peers")
		fmt.Println("  files                   - List stored files")
		fmt.Println("  store <path>            - Store a file and replicate it to all peers")
		fmt.Println("  get <file_id>           - Request a file from all peers")
		fmt.Println("  restore <file_id> [dir] - Write a stored file back out")
		fmt.Println("  delete <file_id>        - Delete a locally stored file")
		fmt.Println("  ping <host:port>        - Send a PING to an address")
		fmt.Println("  exit                    - Stop the node and exit")
	default:
		fmt.Println("Unknown command: " + blocks[0])
	}
}

func (s *shell) exitRequested(in string, breakline bool) bool {
	return breakline && s.quit
}

func (s *shell) complete(d prompt.Document) []prompt.Suggest {
	suggestions := []prompt.Suggest{
		{Text: "status", Description: "Show node status"},
		{Text: "peers", Description: "List known peers"},
		{Text: "files", Description: "List stored files"},
		{Text: "store", Description: "Store and replicate a file"},
		{Text: "get", Description: "Request a file from peers"},
		{Text: "restore", Description: "Write a stored file back out"},
		{Text: "delete", Description: "Delete a local file"},
		{Text: "ping", Description: "Ping an address"},
		{Text: "exit", Description: "Exit the node"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}
