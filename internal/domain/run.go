package domain

import "time"

// RunState is one node of the workflow state machine. Transitions are
// strictly sequential through the analysis states; Failed is an absorbing
// state reachable from any non-terminal state.
type RunState string

const (
	RunStatePending          RunState = "PENDING"
	RunStateExtracting       RunState = "EXTRACTING"
	RunStateSummarizing      RunState = "SUMMARIZING"
	RunStateClassifying      RunState = "CLASSIFYING"
	RunStateParallelAnalysis RunState = "PARALLEL_ANALYSIS"
	RunStateFactorAnalysis   RunState = "FACTOR_ANALYSIS"
	RunStateAggregating      RunState = "AGGREGATING"
	RunStateNotifying        RunState = "NOTIFYING"
	RunStateCompleted        RunState = "COMPLETED"
	RunStateFailed           RunState = "FAILED"
)

// Terminal reports whether the state ends the run.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// StageOutcome records how a stage ended in the run's stage log.
type StageOutcome string

const (
	StageOutcomeCompleted StageOutcome = "completed"
	StageOutcomeFailed    StageOutcome = "failed"
	// StageOutcomeWarning marks a stage whose failure did not fail the run,
	// currently only the terminal notification.
	StageOutcomeWarning StageOutcome = "warning"
)

// StageLogEntry is one line of the ordered stage log kept per run.
type StageLogEntry struct {
	Stage     string       `json:"stage"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   time.Time    `json:"endedAt"`
	Outcome   StageOutcome `json:"outcome"`
	Detail    string       `json:"detail,omitempty"`
}

// WorkflowRun is the ephemeral execution record for one scoring run. The
// workflow engine owns it exclusively for the run's duration; snapshots are
// exposed read-only through a query handler.
type WorkflowRun struct {
	RunID   string          `json:"runId"`
	State   RunState        `json:"state"`
	Stages  []StageLogEntry `json:"stages"`
	Context CaseContext     `json:"context"`

	// Result is set when the run completes; Failure when it fails.
	Result  *RunResult `json:"result,omitempty"`
	Failure *Failure   `json:"failure,omitempty"`
}

// NewWorkflowRun creates a pending run for the given identifier.
func NewWorkflowRun(runID string) *WorkflowRun {
	return &WorkflowRun{RunID: runID, State: RunStatePending}
}

// Transition moves the run to the next state. Transitions out of a terminal
// state are ignored.
func (r *WorkflowRun) Transition(next RunState) {
	if r.State.Terminal() {
		return
	}
	r.State = next
}

// RecordStage appends a completed stage to the ordered stage log.
func (r *WorkflowRun) RecordStage(stage string, start, end time.Time, outcome StageOutcome, detail string) {
	r.Stages = append(r.Stages, StageLogEntry{
		Stage:     stage,
		StartedAt: start,
		EndedAt:   end,
		Outcome:   outcome,
		Detail:    detail,
	})
}
