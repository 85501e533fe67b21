package analysis

import (
	"context"
	"fmt"

	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

// emitStageCompleted publishes a best-effort stage-completion event keyed so
// activity retries deduplicate.
func (a *Activities) emitStageCompleted(ctx context.Context, stage, caseID string, extra map[string]any) {
	wfCtx := a.GetWorkflowContext(ctx)

	payload := map[string]any{
		"stage":  stage,
		"caseId": caseID,
	}
	for k, v := range extra {
		payload[k] = v
	}

	envelope, err := events.NewEnvelope(
		events.TypeStageCompleted,
		"analysis",
		fmt.Sprintf("%s:%s:%s", wfCtx.WorkflowID, stage, caseID),
		wfCtx.WorkflowID,
		wfCtx.RunID,
		payload,
	)
	if err != nil {
		return
	}
	a.EmitEventSafe(ctx, envelope, "stage completed")
}
