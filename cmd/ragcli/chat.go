package main

import (
	"github.com/akolanti/GoRAG/internal/chat"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop over the built index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			startMetrics(ctx, a)

			svc, closeAll, err := buildService(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeAll()

			return chat.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), svc)
		},
	}
	cmd.Flags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}
