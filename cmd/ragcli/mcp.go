package main

import (
	"github.com/akolanti/GoRAG/internal/mcpServer"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask tool to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			startMetrics(ctx, a)

			svc, closeAll, err := buildService(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeAll()

			return mcpServer.Serve(ctx, svc, version)
		},
	}
	cmd.Flags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}
