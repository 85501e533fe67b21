// Package activity provides shared infrastructure for the pipeline's
// Temporal activities: workflow-context extraction, context-safe logging,
// and best-effort event emission. All helpers degrade gracefully outside a
// real activity context so activity code also runs under bare test
// environments.
package activity

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

// WorkflowContext carries the execution metadata activities attach to logs
// and events.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities provides the common collaborator every activity struct
// embeds: an event sink plus safe access to Temporal context details.
type BaseActivities struct {
	eventSink events.EventSink
}

// NewBaseActivities creates base infrastructure around the given sink.
// A nil sink disables event emission.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{eventSink: sink}
}

// GetWorkflowContext extracts workflow execution metadata from the activity
// context. Outside a Temporal activity (plain unit tests), fixed test
// identifiers are returned instead of panicking.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if recover() != nil {
				wfCtx = WorkflowContext{
					WorkflowID: "test-workflow",
					RunID:      "test-run",
					ActivityID: "test-activity",
				}
			}
		}()
		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// EmitEventSafe appends an envelope to the sink with a short bounded retry.
// Emission failures are logged and swallowed; events never fail the activity
// that produced them.
func (b *BaseActivities) EmitEventSafe(ctx context.Context, envelope events.Envelope, description string) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}
		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}
		return
	}

	SafeLogError(ctx, fmt.Sprintf("failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// SafeLog logs at INFO through the activity logger, silently ignoring calls
// made outside an activity context.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError logs at ERROR through the activity logger, silently ignoring
// calls made outside an activity context.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat records activity progress, safe outside activity contexts.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.RecordHeartbeat(ctx, details...)
}
