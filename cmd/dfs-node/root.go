package main

import (
	"os"

	"tarun-kavipurapu/lan-dfs/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dfs-node",
	Short: "LAN peer-to-peer file replication node",
	Long:  `A peer-to-peer node that finds other nodes on the local network over mDNS and replicates files between them.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Sugar.Error(err)
		os.Exit(1)
	}
}
