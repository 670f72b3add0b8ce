package main

import (
	"context"

	"reconflow/cmd/reconflow/scan"
	"reconflow/cmd/reconflow/server"

	"github.com/spf13/cobra"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "reconflow",
		Short: "An asynchronous reconnaissance scan orchestrator",
		Long:  `Reconflow runs subdomain, port, and path scans against targets, chains follow-on scans from discovered assets, and tracks the full asset lineage`,
	}

	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}
