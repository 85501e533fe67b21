// Package workflow orchestrates one legal-case scoring run as a Temporal
// workflow: a strict state machine from document extraction through weighted
// aggregation and notification, with two fan-out analysis stages in between.
// All workflow code uses workflow-safe APIs only.
package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/danielyudicarvalho/case-scoring/internal/aggregation"
	"github.com/danielyudicarvalho/case-scoring/internal/analysis"
	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/ingest"
	"github.com/danielyudicarvalho/case-scoring/internal/notify"
)

// CaseScoringWorkflowName is the registered workflow type.
const CaseScoringWorkflowName = "CaseScoringWorkflow"

// RunStateQuery returns a read-only snapshot of the run record: current
// state, stage log, and case context so far.
const RunStateQuery = "run_state"

// DefaultJurisdiction is used when a start request names no jurisdiction.
const DefaultJurisdiction = "san_diego"

// Stage names as they appear in the run's stage log.
const (
	stageExtract   = "extract_text"
	stageSummarize = "summarize_case"
	stageClassify  = "classify_case_type"
	stageParallel  = "parallel_analysis"
	stageFactor    = "factor_analysis"
	stageAggregate = "aggregate"
	stageNotify    = "notify"
)

// Fan-out branch sets in declared order. Order fixes both merge order and
// which branch failure wins when several fail.
var (
	parallelAnalysisFactors = []domain.Factor{
		domain.FactorLiability,
		domain.FactorExpertCredibility,
	}
	factorAnalysisFactors = []domain.Factor{
		domain.FactorInjury,
		domain.FactorEvidence,
		domain.FactorEconomic,
		domain.FactorNonEconomic,
		domain.FactorInsurance,
	}
)

const stageTimeout = 5 * time.Minute

// CaseScoringWorkflow runs the full scoring pipeline for one case.
//
// State machine: PENDING → EXTRACTING → SUMMARIZING → CLASSIFYING →
// PARALLEL_ANALYSIS → FACTOR_ANALYSIS → AGGREGATING → NOTIFYING → COMPLETED,
// with FAILED absorbing from any non-terminal state. A notification failure
// is the only non-fatal stage failure.
func CaseScoringWorkflow(ctx workflow.Context, req domain.StartRunRequest) (*domain.RunResult, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "case-scoring.v", workflow.DefaultVersion, currentVersion)

	logger := workflow.GetLogger(ctx)
	run := domain.NewWorkflowRun(workflow.GetInfo(ctx).WorkflowExecution.RunID)

	if err := workflow.SetQueryHandler(ctx, RunStateQuery, func() (*domain.WorkflowRun, error) {
		return run, nil
	}); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		run.Transition(domain.RunStateFailed)
		run.Failure = &domain.Failure{
			Kind:    domain.ErrKindMalformedPayload,
			Message: err.Error(),
		}
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid start request", domain.ErrKindMalformedPayload.String(), err)
	}
	if req.JurisdictionID == "" {
		req.JurisdictionID = DefaultJurisdiction
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: stageTimeout,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: domain.NonRetryableKinds(),
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// EXTRACTING
	run.Transition(domain.RunStateExtracting)
	res := runStage(ctx, run, stageExtract, ingest.ExtractDocumentTextActivity, ingest.ExtractInput{
		CaseID: req.CaseID,
		Email:  req.Email,
		Ref:    req.DocumentRef,
	})
	if !res.IsOk() {
		return nil, failRun(run, stageExtract, res.Failure())
	}
	run.Context = res.Value()

	// SUMMARIZING
	run.Transition(domain.RunStateSummarizing)
	res = runStage(ctx, run, stageSummarize, analysis.SummarizeCaseActivity,
		analysis.StageInput{Context: run.Context})
	if !res.IsOk() {
		return nil, failRun(run, stageSummarize, res.Failure())
	}
	run.Context = domain.MergeFragments(run.Context, res.Value())

	// CLASSIFYING
	run.Transition(domain.RunStateClassifying)
	res = runStage(ctx, run, stageClassify, analysis.ClassifyCaseTypeActivity,
		analysis.StageInput{Context: run.Context})
	if !res.IsOk() {
		return nil, failRun(run, stageClassify, res.Failure())
	}
	run.Context = domain.MergeFragments(run.Context, res.Value())

	// PARALLEL_ANALYSIS: liability and expert credibility.
	run.Transition(domain.RunStateParallelAnalysis)
	res = runFanOutStage(ctx, run, stageParallel, parallelAnalysisFactors)
	if !res.IsOk() {
		return nil, failRun(run, stageParallel, res.Failure())
	}
	run.Context = res.Value()

	// FACTOR_ANALYSIS: the remaining five factors.
	run.Transition(domain.RunStateFactorAnalysis)
	res = runFanOutStage(ctx, run, stageFactor, factorAnalysisFactors)
	if !res.IsOk() {
		return nil, failRun(run, stageFactor, res.Failure())
	}
	run.Context = res.Value()

	// AGGREGATING
	run.Transition(domain.RunStateAggregating)
	started := workflow.Now(ctx)

	var weights domain.WeightVector
	if err := workflow.ExecuteActivity(ctx, aggregation.FetchWeightsActivity,
		req.JurisdictionID).Get(ctx, &weights); err != nil {
		failure := failureFrom(err)
		run.RecordStage(stageAggregate, started, workflow.Now(ctx), domain.StageOutcomeFailed, failure.Message)
		return nil, failRun(run, stageAggregate, failure)
	}

	finalScore, err := domain.Aggregate(run.Context, weights)
	if err != nil {
		failure := &domain.Failure{Kind: domain.ErrKindAggregationFailure, Message: err.Error()}
		run.RecordStage(stageAggregate, started, workflow.Now(ctx), domain.StageOutcomeFailed, failure.Message)
		return nil, failRun(run, stageAggregate, failure)
	}
	run.RecordStage(stageAggregate, started, workflow.Now(ctx), domain.StageOutcomeCompleted,
		fmt.Sprintf("final score %.2f", finalScore))

	// Score history is best-effort: a persistence failure is logged against
	// the aggregation stage and never fails the run.
	record := domain.ScoreRecord{
		CaseID:     req.CaseID,
		Timestamp:  workflow.Now(ctx).UTC().Format(time.RFC3339),
		CaseType:   run.Context.CaseType,
		Email:      run.Context.Email,
		FinalScore: finalScore,
	}
	if err := workflow.ExecuteActivity(ctx, aggregation.PersistScoreActivity,
		record).Get(ctx, nil); err != nil {
		logger.Warn("score persistence failed", "case_id", req.CaseID, "error", err)
	}

	// NOTIFYING: failure downgrades to a warning, the run still completes.
	run.Transition(domain.RunStateNotifying)
	started = workflow.Now(ctx)
	notifyInput := notify.NotifyInput{
		Context:    run.Context,
		Weights:    weights,
		FinalScore: finalScore,
	}
	if err := workflow.ExecuteActivity(ctx, notify.NotifyRecipientActivity,
		notifyInput).Get(ctx, nil); err != nil {
		failure := failureFrom(err)
		logger.Warn("notification failed, completing run anyway",
			"case_id", req.CaseID, "error", failure.Message)
		run.RecordStage(stageNotify, started, workflow.Now(ctx), domain.StageOutcomeWarning, failure.Message)
	} else {
		run.RecordStage(stageNotify, started, workflow.Now(ctx), domain.StageOutcomeCompleted, "")
	}

	run.Transition(domain.RunStateCompleted)
	run.Result = &domain.RunResult{
		FinalScore: finalScore,
		CaseType:   run.Context.CaseType,
	}
	logger.Info("scoring run completed",
		"case_id", req.CaseID,
		"case_type", run.Context.CaseType,
		"final_score", finalScore)

	return run.Result, nil
}

// runStage executes one sequential activity and folds its outcome into the
// run's stage log.
func runStage(ctx workflow.Context, run *domain.WorkflowRun, stage, activityName string, arg any) domain.StageResult[domain.CaseContext] {
	started := workflow.Now(ctx)

	var fragment domain.CaseContext
	err := workflow.ExecuteActivity(ctx, activityName, arg).Get(ctx, &fragment)
	ended := workflow.Now(ctx)

	if err != nil {
		failure := failureFrom(err)
		run.RecordStage(stage, started, ended, domain.StageOutcomeFailed, failure.Message)
		return domain.FailedResult[domain.CaseContext](failure.Kind, failure.Message)
	}
	run.RecordStage(stage, started, ended, domain.StageOutcomeCompleted, "")
	return domain.OkResult(fragment)
}

// runFanOutStage executes one fan-out stage over the run's current context
// snapshot and logs the outcome.
func runFanOutStage(ctx workflow.Context, run *domain.WorkflowRun, stage string, factors []domain.Factor) domain.StageResult[domain.CaseContext] {
	started := workflow.Now(ctx)
	res := runParallel(ctx, factors, run.Context)
	ended := workflow.Now(ctx)

	if !res.IsOk() {
		run.RecordStage(stage, started, ended, domain.StageOutcomeFailed, res.Failure().Message)
		return res
	}
	run.RecordStage(stage, started, ended, domain.StageOutcomeCompleted, "")
	return res
}

// failRun moves the run to FAILED and converts the typed failure into the
// workflow error surfaced to the caller, preserving the error kind.
func failRun(run *domain.WorkflowRun, stage string, failure *domain.Failure) error {
	run.Transition(domain.RunStateFailed)
	run.Failure = failure
	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("stage %s failed: %s", stage, failure.Message),
		failure.Kind.String(), failure)
}
