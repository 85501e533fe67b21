package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

func TestRenderScoreReport(t *testing.T) {
	caseCtx := domain.CaseContext{
		CaseType:       "personal injury",
		LiabilityScore: 80,
		InjuryScore:    50,
	}
	weights := domain.NewWeightVector("san_diego", map[domain.Factor]float64{
		domain.FactorLiability: 0.3,
		domain.FactorInjury:    0.2,
	})

	body := RenderScoreReport(caseCtx, weights, 34)

	assert.Contains(t, body, "Case Type: personal injury")
	assert.Contains(t, body, "Liability Score: 24.00")
	assert.Contains(t, body, "Injury Score: 10.00")
	assert.Contains(t, body, "Insurance Score: 0.00")
	assert.Contains(t, body, "FINAL WEIGHTED SCORE: 34.00")
}

func TestRecipient(t *testing.T) {
	t.Run("context email wins", func(t *testing.T) {
		caseCtx := domain.CaseContext{Email: "counsel@example.com"}
		assert.Equal(t, "counsel@example.com", Recipient(caseCtx, "fallback@example.com"))
	})

	t.Run("fallback used when context email is empty", func(t *testing.T) {
		assert.Equal(t, "fallback@example.com", Recipient(domain.CaseContext{}, "fallback@example.com"))
	})
}
