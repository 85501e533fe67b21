package workflow

import (
	"errors"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/danielyudicarvalho/case-scoring/internal/analysis"
	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

// branchOutcome holds what one fan-out branch produced.
type branchOutcome struct {
	fragment domain.CaseContext
	failure  *domain.Failure
	canceled bool
}

// runParallel fans the context snapshot out to one AnalyzeFactor activity
// per factor and merges the fragments back into the snapshot.
//
// Fail-fast: the first branch failure cancels the remaining branches. All
// branches are still drained before returning so the fan-in is
// deterministic, and when several branches fail the failure of the
// lowest-index factor in declared order wins. On any failure the snapshot is
// abandoned unmerged; partial fragments never escape.
func runParallel(ctx workflow.Context, factors []domain.Factor, snapshot domain.CaseContext) domain.StageResult[domain.CaseContext] {
	branchCtx, cancelBranches := workflow.WithCancel(ctx)

	futures := make([]workflow.Future, len(factors))
	for i, factor := range factors {
		futures[i] = workflow.ExecuteActivity(branchCtx, analysis.AnalyzeFactorActivity, analysis.FactorInput{
			Factor:  factor,
			Context: snapshot,
		})
	}

	outcomes := make([]branchOutcome, len(factors))
	pending := len(factors)

	selector := workflow.NewSelector(ctx)
	for i := range futures {
		idx := i
		selector.AddFuture(futures[idx], func(f workflow.Future) {
			pending--

			var fragment domain.CaseContext
			if err := f.Get(ctx, &fragment); err != nil {
				outcomes[idx].canceled = isCanceled(err)
				outcomes[idx].failure = failureFrom(err)
				cancelBranches()
				return
			}
			outcomes[idx].fragment = fragment
		})
	}
	for pending > 0 {
		selector.Select(ctx)
	}

	// Prefer the first real failure in declared order; cancellations are
	// only reported when nothing else failed (the parent was canceled).
	var canceledFailure *domain.Failure
	for _, outcome := range outcomes {
		if outcome.failure == nil {
			continue
		}
		if outcome.canceled {
			if canceledFailure == nil {
				canceledFailure = outcome.failure
			}
			continue
		}
		return domain.FailedResult[domain.CaseContext](outcome.failure.Kind, outcome.failure.Message)
	}
	if canceledFailure != nil {
		return domain.FailedResult[domain.CaseContext](canceledFailure.Kind, canceledFailure.Message)
	}

	fragments := make([]domain.CaseContext, len(outcomes))
	for i, outcome := range outcomes {
		fragments[i] = outcome.fragment
	}
	return domain.OkResult(domain.MergeFragments(snapshot, fragments...))
}

// isCanceled reports whether the branch failed because its sibling's failure
// canceled it rather than on its own account.
func isCanceled(err error) bool {
	return temporal.IsCanceledError(err)
}

// failureFrom classifies an activity error into the typed failure the engine
// branches on. Application errors carry the error kind as their type;
// timeouts, cancellations, and anything unrecognized classify as transient
// upstream failures.
func failureFrom(err error) *domain.Failure {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		kind := domain.ErrorKind(appErr.Type())
		switch kind {
		case domain.ErrKindMalformedPayload,
			domain.ErrKindConfigurationMissing,
			domain.ErrKindUpstreamUnavailable,
			domain.ErrKindAggregationFailure,
			domain.ErrKindNotificationFailure:
			return &domain.Failure{Kind: kind, Message: appErr.Message()}
		}
		return &domain.Failure{Kind: domain.ErrKindUpstreamUnavailable, Message: appErr.Message()}
	}
	return &domain.Failure{Kind: domain.ErrKindUpstreamUnavailable, Message: err.Error()}
}
