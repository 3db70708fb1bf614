package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tarun-kavipurapu/lan-dfs/node"
	"tarun-kavipurapu/lan-dfs/pkg/config"
	"tarun-kavipurapu/lan-dfs/pkg/identity"
	"tarun-kavipurapu/lan-dfs/pkg/logger"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var (
	nodePort        int
	storagePath     string
	bootstrapPeers  []string
	logLevel        string
	maxMessageSize  int64
	fileToStore     string
	fileToRequest   string
	nodeInteractive bool
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Start a node",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Port = nodePort
		}
		if flags.Changed("storage") {
			cfg.StoragePath = storagePath
		}
		if flags.Changed("bootstrap") {
			cfg.Bootstrap = bootstrapPeers
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("max-message-size") {
			cfg.MaxMessageSize = maxMessageSize
		}
		cfg.Finalize()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := logger.Setup(cfg.LogFile(), logger.ParseLevel(cfg.LogLevel), !nodeInteractive); err != nil {
			return err
		}
		defer logger.Sync()

		id, err := identity.Load(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to load identity: %w", err)
		}

		logger.Sugar.Infof("Starting node %s on port %d, storage %s", id.NodeID, cfg.Port, cfg.StoragePath)

		n := node.New(node.Options{
			Identity:        id,
			StoragePath:     cfg.StoragePath,
			MaxMessageSize:  cfg.MaxMessageSize,
			Bootstrap:       cfg.Bootstrap,
			MetricsInterval: cfg.MetricsInterval,
		})
		if err := n.Start(cfg.Port); err != nil {
			return err
		}
		defer n.Stop()

		if fileToStore != "" {
			if fileId, err := n.StoreFile(fileToStore); err != nil {
				logger.Sugar.Errorf("Failed to store file: %v", err)
			} else {
				fmt.Printf("Stored %s as %s\n", fileToStore, fileId)
			}
		}

		if fileToRequest != "" {
			asked := n.RequestFile(fileToRequest)
			logger.Sugar.Infof("Requested file %s from %d peers", fileToRequest, asked)
		}

		if nodeInteractive {
			fmt.Println("LAN DFS Node Interactive Shell")
			fmt.Printf("Node ID: %s\n", n.ID())
			fmt.Println("Type 'help' for commands.")

			sh := &shell{node: n, restoreDir: "restored"}
			prompt.New(
				sh.execute,
				sh.complete,
				prompt.OptionPrefix("dfs> "),
				prompt.OptionTitle("LAN DFS Node"),
				prompt.OptionSetExitCheckerOnInput(sh.exitRequested),
			).Run()
			return nil
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Sugar.Infof("Shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.Flags().IntVarP(&nodePort, "port", "p", config.DefaultPort, "TCP port to listen on (env PORT)")
	nodeCmd.Flags().StringVarP(&storagePath, "storage", "s", "", "Directory for chunks, metadata and identity (env STORAGE_PATH, default data/node-<port>)")
	nodeCmd.Flags().StringSliceVarP(&bootstrapPeers, "bootstrap", "b", nil, "host:port of nodes to ping at start (env BOOTSTRAP)")
	nodeCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (env DFS_LOG_LEVEL)")
	nodeCmd.Flags().Int64Var(&maxMessageSize, "max-message-size", 0, "Largest accepted message in bytes (env DFS_MAX_MESSAGE_SIZE)")
	nodeCmd.Flags().StringVarP(&fileToStore, "store", "r", "", "Path to a file to store and replicate immediately")
	nodeCmd.Flags().StringVarP(&fileToRequest, "get", "g", "", "File ID to request from peers immediately")
	nodeCmd.Flags().BoolVarP(&nodeInteractive, "interactive", "i", false, "Start in interactive mode")
}
