package main

import (
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/spf13/cobra"
)

var version = "dev"

type app struct {
	configFile  string
	metricsAddr string
	cfg         *config.AppConfig
	logger      *logger_i.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ragcli",
		Short:         "Ask questions about a local folder of documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger_i.Init(logger_i.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
			a.logger = logger_i.NewLogger("main").With("command", cmd.Name())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "optional YAML config file")

	root.AddCommand(newIngestCmd(a), newChatCmd(a), newMCPCmd(a))
	return root
}
