package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielyudicarvalho/case-scoring/internal/configuration"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "casescore",
		Short:         "Legal case document scoring pipeline",
		Long:          "casescore orchestrates legal case scoring runs: document text extraction, model-backed analysis, weighted aggregation, and score report delivery.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML configuration file")

	cmd.AddCommand(newWorkerCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStartCmd(opts))
	return cmd
}

// loadConfig resolves the effective configuration for a subcommand.
func (o *rootOptions) loadConfig() (*configuration.Config, error) {
	return configuration.Load(o.configPath)
}

// newLogger builds the process logger.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
