package node

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tarun-kavipurapu/lan-dfs/pkg/crypto"
	"tarun-kavipurapu/lan-dfs/pkg/logger"
	"tarun-kavipurapu/lan-dfs/pkg/protocol"
	"tarun-kavipurapu/lan-dfs/pkg/storage"
	"tarun-kavipurapu/lan-dfs/pkg/transport/tcp"
)

// envelopeOverhead leaves room for the JSON fields around the chunk.
const envelopeOverhead = 4096

// StoreFile keeps the file at path locally and replicates it to every known
// peer. The returned file id is the SHA-256 of the contents.
func (n *Node) StoreFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	limit := n.opts.MaxMessageSize
	if limit <= 0 {
		limit = tcp.DefaultMaxMessageSize
	}
	if int64(base64.StdEncoding.EncodedLen(len(data))+envelopeOverhead) > limit {
		return "", fmt.Errorf("file %s (%d bytes) does not fit in one message of %d bytes", path, len(data), limit)
	}

	fileId, err := crypto.HashReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	fileName := filepath.Base(path)
	chunk := base64.StdEncoding.EncodeToString(data)

	written, err := n.chunks.SaveChunk(fileId, chunk)
	if err != nil {
		return "", err
	}
	n.metrics.RecordStored(written)
	if err := n.index.SaveMetadata(fileId, fileName); err != nil {
		return "", err
	}

	n.Broadcast(protocol.Store{
		FileId:   fileId,
		Chunk:    chunk,
		FileName: fileName,
		From:     n.identity.NodeID,
	})

	logger.Sugar.Infof("[Node] stored and replicated file: fileName=%s fileId=%s bytes=%d peers=%d", fileName, fileId, len(data), n.peers.Len())
	return fileId, nil
}

// RequestFile asks every known peer for fileId and returns how many were
// asked. Peers holding it answer with a STORE to our listening port.
func (n *Node) RequestFile(fileId string) int {
	n.Broadcast(protocol.Get{
		FileId: fileId,
		From:   n.identity.NodeID,
		Port:   n.port,
	})
	return n.peers.Len()
}

// Restore writes the stored chunk for fileId into destDir under its
// recorded file name, falling back to the id when no record exists.
func (n *Node) Restore(fileId, destDir string) (string, error) {
	data, err := n.chunks.ReadChunkBytes(fileId)
	if err != nil {
		return "", err
	}

	name := fileId
	if recorded, err := n.index.GetFileName(fileId); err == nil && recorded != "" {
		name = filepath.Base(recorded)
	}

	dest := filepath.Join(destDir, name)
	if err := storage.WriteFileAtomic(dest, data, 0644); err != nil {
		return "", fmt.Errorf("restore %s: %w", fileId, err)
	}

	logger.Sugar.Infof("[Node] restored file: fileId=%s path=%s bytes=%d", fileId, dest, len(data))
	return dest, nil
}

// DeleteFile drops the local chunk and its metadata record. It reports
// whether either existed.
func (n *Node) DeleteFile(fileId string) (bool, error) {
	removedChunk, err := n.chunks.DeleteChunk(fileId)
	if err != nil {
		return false, err
	}
	removedMeta, err := n.index.DeleteMetadata(fileId)
	if err != nil {
		return removedChunk, err
	}
	return removedChunk || removedMeta, nil
}

func (n *Node) Files() (map[string]storage.FileRecord, error) {
	return n.index.ListAllFiles()
}

// HasChunk reports whether the chunk for fileId is stored locally.
func (n *Node) HasChunk(fileId string) bool {
	return n.chunks.Has(fileId)
}

func (n *Node) Status() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Node %s listening on port %d\n", n.identity.NodeID, n.port)
	fmt.Fprintf(&b, "Storage: %s\n", n.storagePath)

	peers := n.peers.List()
	fmt.Fprintf(&b, "Known Peers: %d\n", len(peers))
	for _, p := range peers {
		fmt.Fprintf(&b, " - %s @ %s\n", p.NodeID, p.Addr())
	}

	files, err := n.index.ListAllFiles()
	if err != nil {
		fmt.Fprintf(&b, "Stored Files: unavailable (%v)\n", err)
	} else {
		ids := make([]string, 0, len(files))
		for id := range files {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Fprintf(&b, "Stored Files: %d\n", len(files))
		for _, id := range ids {
			fmt.Fprintf(&b, " - %s (ID: %s)\n", files[id].FileName, id)
		}
	}

	s := n.metrics.Snapshot()
	fmt.Fprintf(&b, "Messages: in=%d out=%d failed=%d\n", s.MessagesIn, s.MessagesOut, s.SendFailures)
	return b.String()
}
