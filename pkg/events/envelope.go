// Package events provides the event infrastructure for run observability.
// Activities wrap domain events in a common envelope and hand them to an
// EventSink; emission is always best-effort and never fails the operation
// that produced the event.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scoring pipeline.
const (
	// TypeStageCompleted is emitted after each pipeline stage finishes.
	TypeStageCompleted = "case.stage_completed"

	// TypeScoreAggregated is emitted once the final weighted score exists.
	TypeScoreAggregated = "case.score_aggregated"

	// TypeRunNotified is emitted after the terminal notification attempt.
	TypeRunNotified = "case.run_notified"
)

// Envelope wraps a domain event with routing and idempotency metadata.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing, e.g. "case.stage_completed".
	Type string `json:"type"`

	// Source names the component that emitted the event.
	Source string `json:"source"`

	// Timestamp records when the event was emitted (wall clock).
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey deduplicates re-emissions caused by activity retries.
	IdempotencyKey string `json:"idempotencyKey"`

	// WorkflowID and RunID correlate the event with its scoring run.
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`

	// Payload is the event body; its schema varies by Type.
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope assembles an envelope around a marshaled payload.
func NewEnvelope(eventType, source, idempotencyKey, workflowID, runID string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:             uuid.New().String(),
		Type:           eventType,
		Source:         source,
		Timestamp:      time.Now(),
		IdempotencyKey: idempotencyKey,
		WorkflowID:     workflowID,
		RunID:          runID,
		Payload:        body,
	}, nil
}

// EventSink receives emitted envelopes. Implementations must treat duplicate
// idempotency keys as no-ops and return quickly; events matter for
// observability, not for correctness.
type EventSink interface {
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards all events. Used where no sink is wired.
type NoOpEventSink struct{}

// NewNoOpEventSink creates a sink that drops everything.
func NewNoOpEventSink() *NoOpEventSink { return &NoOpEventSink{} }

func (*NoOpEventSink) Append(context.Context, Envelope) error { return nil }

// MemorySink collects events in memory for tests, deduplicating by
// idempotency key.
type MemorySink struct {
	mu   sync.Mutex
	seen map[string]bool
	list []Envelope
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{seen: make(map[string]bool)}
}

func (s *MemorySink) Append(_ context.Context, envelope Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if envelope.IdempotencyKey != "" && s.seen[envelope.IdempotencyKey] {
		return nil
	}
	s.seen[envelope.IdempotencyKey] = true
	s.list = append(s.list, envelope)
	return nil
}

// Events returns a snapshot of collected envelopes.
func (s *MemorySink) Events() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.list))
	copy(out, s.list)
	return out
}
