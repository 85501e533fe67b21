package notify

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	pkgactivity "github.com/danielyudicarvalho/case-scoring/pkg/activity"
	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

// NotifyRecipientActivity is the registered name of the notification stage.
const NotifyRecipientActivity = "NotifyRecipient"

// NotifyInput carries everything the score report needs.
type NotifyInput struct {
	Context    domain.CaseContext  `json:"context"`
	Weights    domain.WeightVector `json:"weights"`
	FinalScore float64             `json:"finalScore"`
}

// Activities hosts the notification activity.
type Activities struct {
	pkgactivity.BaseActivities

	notifier Notifier
	fallback string
}

// NewActivities wires the notification activity. fallback is the recipient
// used when a case carries no email address.
func NewActivities(base pkgactivity.BaseActivities, notifier Notifier, fallback string) *Activities {
	return &Activities{
		BaseActivities: base,
		notifier:       notifier,
		fallback:       fallback,
	}
}

// NotifyRecipient renders the weighted score report and delivers it. Failures
// surface as non-retryable notification errors; the workflow records them as
// warnings and still completes the run.
func (a *Activities) NotifyRecipient(ctx context.Context, input NotifyInput) error {
	recipient := Recipient(input.Context, a.fallback)
	if recipient == "" {
		return temporal.NewNonRetryableApplicationError(
			"no recipient for score report",
			domain.ErrKindNotificationFailure.String(), nil)
	}

	body := RenderScoreReport(input.Context, input.Weights, input.FinalScore)

	pkgactivity.SafeLog(ctx, "sending score report",
		"case_id", input.Context.CaseID,
		"recipient", recipient)

	if err := a.notifier.Send(ctx, recipient, ReportSubject, body); err != nil {
		return temporal.NewNonRetryableApplicationError(
			"score report delivery failed",
			domain.ErrKindNotificationFailure.String(), err)
	}

	a.emitNotified(ctx, input.Context.CaseID, recipient)
	return nil
}

func (a *Activities) emitNotified(ctx context.Context, caseID, recipient string) {
	wfCtx := a.GetWorkflowContext(ctx)
	envelope, err := events.NewEnvelope(
		events.TypeRunNotified,
		"notify",
		fmt.Sprintf("%s:notify:%s", wfCtx.WorkflowID, caseID),
		wfCtx.WorkflowID,
		wfCtx.RunID,
		map[string]any{
			"caseId":    caseID,
			"recipient": recipient,
		},
	)
	if err != nil {
		return
	}
	a.EmitEventSafe(ctx, envelope, "run notified")
}
