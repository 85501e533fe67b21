package notify

import (
	"fmt"
	"strings"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

// ReportSubject is the subject line of the final score notification.
const ReportSubject = "Final Score Report"

// reportLabels maps factors to the labels used in the report body, in
// presentation order.
var reportLabels = []struct {
	factor domain.Factor
	label  string
}{
	{domain.FactorLiability, "Liability Score"},
	{domain.FactorInsurance, "Insurance Score"},
	{domain.FactorInjury, "Injury Score"},
	{domain.FactorEvidence, "Evidence Score"},
	{domain.FactorExpertCredibility, "Expert Score"},
	{domain.FactorEconomic, "Economic Score"},
	{domain.FactorNonEconomic, "Non-Economic Score"},
}

// RenderScoreReport renders the plain-text weighted breakdown delivered when
// a run completes: each factor's weighted contribution and the final score.
func RenderScoreReport(caseCtx domain.CaseContext, weights domain.WeightVector, finalScore float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weighted Score Breakdown for Case Type: %s\n\n", caseCtx.CaseType)
	for _, entry := range reportLabels {
		contribution := caseCtx.Score(entry.factor) * weights.Weight(entry.factor)
		fmt.Fprintf(&sb, "%s: %.2f\n", entry.label, contribution)
	}
	fmt.Fprintf(&sb, "\nFINAL WEIGHTED SCORE: %.2f\n", finalScore)
	return sb.String()
}

// Recipient resolves the notification destination, falling back to the
// configured recipient when the case context carries no email.
func Recipient(caseCtx domain.CaseContext, fallback string) string {
	if caseCtx.Email != "" {
		return caseCtx.Email
	}
	return fallback
}
