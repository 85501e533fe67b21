// Package ingest implements the pipeline's entry stage: fetching the stored
// case document and extracting its text.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.temporal.io/sdk/temporal"

	"github.com/danielyudicarvalho/case-scoring/internal/blobstore"
	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/extract"
	pkgactivity "github.com/danielyudicarvalho/case-scoring/pkg/activity"
	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

// ExtractDocumentTextActivity is the registered name of the extraction stage.
const ExtractDocumentTextActivity = "ExtractDocumentText"

// ExtractInput identifies the document to extract and the identity fields
// the resulting fragment must carry.
type ExtractInput struct {
	CaseID string             `json:"caseId"`
	Email  string             `json:"email,omitempty"`
	Ref    domain.DocumentRef `json:"documentRef"`
}

// Activities hosts the ingestion activities.
type Activities struct {
	pkgactivity.BaseActivities

	documents blobstore.Store
	extractor extract.TextExtractor
}

// NewActivities wires the ingestion activities.
func NewActivities(base pkgactivity.BaseActivities, documents blobstore.Store, extractor extract.TextExtractor) *Activities {
	return &Activities{
		BaseActivities: base,
		documents:      documents,
		extractor:      extractor,
	}
}

// ExtractDocumentText fetches the referenced document and extracts its plain
// text. A missing document or an undecodable/empty one fails the run with a
// malformed-payload error; store outages surface as retryable upstream
// failures.
func (a *Activities) ExtractDocumentText(ctx context.Context, input ExtractInput) (*domain.CaseContext, error) {
	if input.Ref.IsZero() {
		return nil, temporal.NewNonRetryableApplicationError(
			"extraction requires a document reference",
			domain.ErrKindMalformedPayload.String(), domain.ErrMissingDocumentRef)
	}

	pkgactivity.SafeLog(ctx, "extracting document text",
		"case_id", input.CaseID,
		"bucket", input.Ref.Bucket,
		"key", input.Ref.Key)

	data, err := a.documents.Get(ctx, input.Ref.Bucket, input.Ref.Key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("document %s/%s not found", input.Ref.Bucket, input.Ref.Key),
				domain.ErrKindMalformedPayload.String(), err)
		}
		return nil, temporal.NewApplicationError(
			"document store unavailable", domain.ErrKindUpstreamUnavailable.String(), err)
	}

	pkgactivity.RecordHeartbeat(ctx, "extracting")

	text, err := a.extractor.Extract(ctx, data)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"document could not be decoded",
			domain.ErrKindMalformedPayload.String(), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, temporal.NewNonRetryableApplicationError(
			domain.ErrEmptyExtractedText.Error(),
			domain.ErrKindMalformedPayload.String(), domain.ErrEmptyExtractedText)
	}

	a.emitExtracted(ctx, input.CaseID, len(text))

	return &domain.CaseContext{
		CaseID:        input.CaseID,
		Email:         input.Email,
		DocumentRef:   input.Ref,
		ExtractedText: text,
	}, nil
}

func (a *Activities) emitExtracted(ctx context.Context, caseID string, textLen int) {
	wfCtx := a.GetWorkflowContext(ctx)
	envelope, err := events.NewEnvelope(
		events.TypeStageCompleted,
		"ingest",
		fmt.Sprintf("%s:extract_text:%s", wfCtx.WorkflowID, caseID),
		wfCtx.WorkflowID,
		wfCtx.RunID,
		map[string]any{
			"stage":      "extract_text",
			"caseId":     caseID,
			"textLength": textLen,
		},
	)
	if err != nil {
		return
	}
	a.EmitEventSafe(ctx, envelope, "stage completed")
}
