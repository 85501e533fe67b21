// Package aggregation implements the scoring tail of the pipeline: fetching
// jurisdiction weight vectors and persisting final scores. The weighted
// aggregation itself is pure and lives in the domain package; these
// activities supply its inputs and record its output.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.temporal.io/sdk/temporal"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/kvstore"
	pkgactivity "github.com/danielyudicarvalho/case-scoring/pkg/activity"
	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

// Activity names registered with the worker.
const (
	FetchWeightsActivity = "FetchWeights"
	PersistScoreActivity = "PersistScore"
)

// weightAttributes maps each factor to the attribute name its weight is
// stored under in the jurisdiction weights table.
var weightAttributes = map[domain.Factor]string{
	domain.FactorLiability:         "weightLiability",
	domain.FactorInsurance:         "weightInsurance",
	domain.FactorInjury:            "weightInjury",
	domain.FactorEvidence:          "weightEvidence",
	domain.FactorExpertCredibility: "weightExpert",
	domain.FactorEconomic:          "weightEconomic",
	domain.FactorNonEconomic:       "weightNonEconomic",
}

// Activities hosts the aggregation support activities.
type Activities struct {
	pkgactivity.BaseActivities

	store        kvstore.Store
	weightsTable string
	historyTable string

	mu    sync.RWMutex
	cache map[string]domain.WeightVector
}

// NewActivities wires the aggregation activities over the given key-value
// store and table names.
func NewActivities(base pkgactivity.BaseActivities, store kvstore.Store, weightsTable, historyTable string) *Activities {
	return &Activities{
		BaseActivities: base,
		store:          store,
		weightsTable:   weightsTable,
		historyTable:   historyTable,
		cache:          make(map[string]domain.WeightVector),
	}
}

// FetchWeights loads the weight vector for a jurisdiction. Weight tables are
// deploy-time configuration, so vectors are cached per process and a missing
// entry is a non-retryable configuration failure.
func (a *Activities) FetchWeights(ctx context.Context, jurisdictionID string) (domain.WeightVector, error) {
	if jurisdictionID == "" {
		return domain.WeightVector{}, temporal.NewNonRetryableApplicationError(
			"jurisdiction identifier is required",
			domain.ErrKindConfigurationMissing.String(), nil)
	}

	a.mu.RLock()
	cached, ok := a.cache[jurisdictionID]
	a.mu.RUnlock()
	if ok {
		return cached, nil
	}

	item, err := a.store.Get(ctx, a.weightsTable, jurisdictionID)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return domain.WeightVector{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("%s: %s", domain.ErrWeightsNotFound.Error(), jurisdictionID),
				domain.ErrKindConfigurationMissing.String(), domain.ErrWeightsNotFound)
		}
		return domain.WeightVector{}, temporal.NewApplicationError(
			"weights store unavailable", domain.ErrKindUpstreamUnavailable.String(), err)
	}

	weights := make(map[domain.Factor]float64, len(weightAttributes))
	for factor, attr := range weightAttributes {
		v, ok := numericAttr(item, attr)
		if !ok {
			continue // absent weight contributes zero
		}
		weights[factor] = v
	}

	vector := domain.NewWeightVector(jurisdictionID, weights)
	if vector.IsZero() {
		return domain.WeightVector{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("weight entry for %s carries no usable weights", jurisdictionID),
			domain.ErrKindConfigurationMissing.String(), domain.ErrWeightsNotFound)
	}

	a.mu.Lock()
	a.cache[jurisdictionID] = vector
	a.mu.Unlock()

	pkgactivity.SafeLog(ctx, "fetched jurisdiction weights",
		"jurisdiction", jurisdictionID,
		"weights", len(weights))
	return vector, nil
}

// PersistScore appends a score record to the history table. Persistence is
// best-effort from the workflow's point of view; the activity still reports
// errors so retries can smooth transient store failures.
func (a *Activities) PersistScore(ctx context.Context, record domain.ScoreRecord) error {
	if record.CaseID == "" {
		return temporal.NewNonRetryableApplicationError(
			"score record requires a case identifier",
			domain.ErrKindMalformedPayload.String(), domain.ErrMissingCaseID)
	}

	item := kvstore.Item{
		kvstore.KeyAttribute: fmt.Sprintf("%s#%s", record.CaseID, record.Timestamp),
		"caseId":             record.CaseID,
		"timestamp":          record.Timestamp,
		"caseType":           record.CaseType,
		"email":              record.Email,
		"finalScore":         record.FinalScore,
	}
	if err := a.store.Put(ctx, a.historyTable, item); err != nil {
		return temporal.NewApplicationError(
			"score history store unavailable", domain.ErrKindUpstreamUnavailable.String(), err)
	}

	a.emitScoreAggregated(ctx, record)
	return nil
}

// numericAttr reads an attribute as float64, tolerating the integer types a
// JSON or SQL round-trip may produce.
func numericAttr(item kvstore.Item, attr string) (float64, bool) {
	switch v := item[attr].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func (a *Activities) emitScoreAggregated(ctx context.Context, record domain.ScoreRecord) {
	wfCtx := a.GetWorkflowContext(ctx)
	envelope, err := events.NewEnvelope(
		events.TypeScoreAggregated,
		"aggregation",
		fmt.Sprintf("%s:score:%s", wfCtx.WorkflowID, record.CaseID),
		wfCtx.WorkflowID,
		wfCtx.RunID,
		map[string]any{
			"caseId":     record.CaseID,
			"caseType":   record.CaseType,
			"finalScore": record.FinalScore,
		},
	)
	if err != nil {
		return
	}
	a.EmitEventSafe(ctx, envelope, "score aggregated")
}
