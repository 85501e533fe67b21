package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/danielyudicarvalho/case-scoring/internal/api"
	"github.com/danielyudicarvalho/case-scoring/internal/blobstore"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()

			docs, err := blobstore.NewFSStore(cfg.Storage.BlobRoot)
			if err != nil {
				return fmt.Errorf("open blob store: %w", err)
			}

			c, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("connect to temporal: %w", err)
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return api.NewServer(cfg, c, docs, logger).Run(ctx)
		},
	}
}
