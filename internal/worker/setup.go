// Package worker wires the pipeline's collaborators from configuration and
// registers the scoring workflow and its activities with a Temporal worker.
package worker

import (
	"fmt"
	"log/slog"

	"github.com/danielyudicarvalho/case-scoring/internal/blobstore"
	"github.com/danielyudicarvalho/case-scoring/internal/configuration"
	"github.com/danielyudicarvalho/case-scoring/internal/kvstore"
	"github.com/danielyudicarvalho/case-scoring/internal/llm"
	"github.com/danielyudicarvalho/case-scoring/internal/notify"
)

// Collaborators bundles the infrastructure the activities depend on. Built
// once per process and shared across the worker and the trigger server.
type Collaborators struct {
	Blobs      blobstore.Store
	KV         kvstore.Store
	Completion llm.CompletionClient
	Notifier   notify.Notifier

	closeKV func() error
}

// Close releases resources held by the collaborators.
func (c *Collaborators) Close() error {
	if c.closeKV != nil {
		return c.closeKV()
	}
	return nil
}

// NewCollaborators builds the production collaborator set from configuration.
func NewCollaborators(cfg *configuration.Config, logger *slog.Logger) (*Collaborators, error) {
	blobs, err := blobstore.NewFSStore(cfg.Storage.BlobRoot)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	kv, err := kvstore.OpenSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open key-value store: %w", err)
	}

	completion, err := llm.NewClient(cfg.CompletionClientConfig(), logger)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("build completion client: %w", err)
	}

	var notifier notify.Notifier
	switch cfg.Notification.Mode {
	case "smtp":
		notifier, err = notify.NewSMTPNotifier(cfg.SMTPConfig())
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("build notifier: %w", err)
		}
	default:
		notifier = notify.NewLogNotifier(logger)
	}

	return &Collaborators{
		Blobs:      blobs,
		KV:         kv,
		Completion: completion,
		Notifier:   notifier,
		closeKV:    kv.Close,
	}, nil
}
