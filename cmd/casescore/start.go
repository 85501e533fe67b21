package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/workflow"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	var (
		caseID       string
		email        string
		bucket       string
		key          string
		jurisdiction string
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start one scoring run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = cfg.Storage.DocumentsBucket
			}
			if jurisdiction == "" {
				jurisdiction = cfg.Jurisdiction
			}

			req := domain.StartRunRequest{
				CaseID:         caseID,
				Email:          email,
				DocumentRef:    domain.DocumentRef{Bucket: bucket, Key: key},
				JurisdictionID: jurisdiction,
			}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("invalid start request: %w", err)
			}

			c, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("connect to temporal: %w", err)
			}
			defer c.Close()

			run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
				ID:        fmt.Sprintf("case-scoring-%s-%s", req.CaseID, uuid.New().String()[:8]),
				TaskQueue: cfg.Temporal.TaskQueue,
			}, workflow.CaseScoringWorkflowName, req)
			if err != nil {
				return fmt.Errorf("start scoring run: %w", err)
			}

			fmt.Printf("started workflow %s run %s\n", run.GetID(), run.GetRunID())
			if !wait {
				return nil
			}

			var result domain.RunResult
			if err := run.Get(cmd.Context(), &result); err != nil {
				return fmt.Errorf("scoring run failed: %w", err)
			}
			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}

	cmd.Flags().StringVar(&caseID, "case-id", "", "case identifier (required)")
	cmd.Flags().StringVar(&email, "email", "", "recipient for the score report")
	cmd.Flags().StringVar(&bucket, "bucket", "", "document bucket (defaults to the configured documents bucket)")
	cmd.Flags().StringVar(&key, "key", "", "document key (required)")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "jurisdiction for weight lookup (defaults to the configured jurisdiction)")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the run finishes and print the result")
	_ = cmd.MarkFlagRequired("case-id")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
