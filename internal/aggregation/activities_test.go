package aggregation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/kvstore"
	pkgactivity "github.com/danielyudicarvalho/case-scoring/pkg/activity"
	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

const (
	testWeightsTable = "jurisdiction_weights"
	testHistoryTable = "score_history"
)

func newTestActivities(t *testing.T) (*Activities, kvstore.Store) {
	t.Helper()
	store := kvstore.NewMemStore()
	base := pkgactivity.NewBaseActivities(events.NewNoOpEventSink())
	return NewActivities(base, store, testWeightsTable, testHistoryTable), store
}

func seedWeights(t *testing.T, store kvstore.Store, jurisdiction string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), testWeightsTable, kvstore.Item{
		kvstore.KeyAttribute: jurisdiction,
		"weightLiability":    0.3,
		"weightInsurance":    0.1,
		"weightInjury":       0.15,
		"weightEvidence":     0.2,
		"weightExpert":       0.1,
		"weightEconomic":     0.1,
		"weightNonEconomic":  0.05,
	}))
}

func TestFetchWeights(t *testing.T) {
	acts, store := newTestActivities(t)
	seedWeights(t, store, "san_diego")

	vector, err := acts.FetchWeights(context.Background(), "san_diego")
	require.NoError(t, err)

	assert.Equal(t, "san_diego", vector.JurisdictionID)
	assert.InDelta(t, 0.3, vector.Weight(domain.FactorLiability), 1e-9)
	assert.InDelta(t, 0.1, vector.Weight(domain.FactorExpertCredibility), 1e-9)
	assert.InDelta(t, 0.05, vector.Weight(domain.FactorNonEconomic), 1e-9)
}

func TestFetchWeightsMissingJurisdiction(t *testing.T) {
	acts, _ := newTestActivities(t)

	_, err := acts.FetchWeights(context.Background(), "nowhere")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrKindConfigurationMissing.String(), appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestFetchWeightsEmptyJurisdiction(t *testing.T) {
	acts, _ := newTestActivities(t)

	_, err := acts.FetchWeights(context.Background(), "")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrKindConfigurationMissing.String(), appErr.Type())
}

func TestFetchWeightsEntryWithoutWeights(t *testing.T) {
	acts, store := newTestActivities(t)
	require.NoError(t, store.Put(context.Background(), testWeightsTable, kvstore.Item{
		kvstore.KeyAttribute: "san_diego",
		"note":               "placeholder row",
	}))

	_, err := acts.FetchWeights(context.Background(), "san_diego")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrKindConfigurationMissing.String(), appErr.Type())
}

func TestFetchWeightsCachesPerProcess(t *testing.T) {
	acts, store := newTestActivities(t)
	seedWeights(t, store, "san_diego")
	ctx := context.Background()

	first, err := acts.FetchWeights(ctx, "san_diego")
	require.NoError(t, err)

	// A later table rewrite must not change what the process serves.
	require.NoError(t, store.Put(ctx, testWeightsTable, kvstore.Item{
		kvstore.KeyAttribute: "san_diego",
		"weightLiability":    0.99,
	}))

	second, err := acts.FetchWeights(ctx, "san_diego")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.InDelta(t, 0.3, second.Weight(domain.FactorLiability), 1e-9)
}

func TestFetchWeightsPartialEntry(t *testing.T) {
	acts, store := newTestActivities(t)
	require.NoError(t, store.Put(context.Background(), testWeightsTable, kvstore.Item{
		kvstore.KeyAttribute: "austin",
		"weightLiability":    0.5,
		"weightEvidence":     0.5,
	}))

	vector, err := acts.FetchWeights(context.Background(), "austin")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, vector.Weight(domain.FactorLiability), 1e-9)
	assert.Zero(t, vector.Weight(domain.FactorInjury), "absent weight contributes zero")
}

func TestPersistScore(t *testing.T) {
	acts, store := newTestActivities(t)
	ctx := context.Background()

	record := domain.ScoreRecord{
		CaseID:     "case-9",
		Timestamp:  "2026-08-29T12:00:00Z",
		CaseType:   "Personal Injury",
		Email:      "counsel@example.com",
		FinalScore: 34.0,
	}
	require.NoError(t, acts.PersistScore(ctx, record))

	item, err := store.Get(ctx, testHistoryTable, "case-9#2026-08-29T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "case-9", item["caseId"])
	assert.Equal(t, 34.0, item["finalScore"])
}

func TestPersistScoreRequiresCaseID(t *testing.T) {
	acts, _ := newTestActivities(t)

	err := acts.PersistScore(context.Background(), domain.ScoreRecord{FinalScore: 1})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrKindMalformedPayload.String(), appErr.Type())
}
