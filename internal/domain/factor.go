package domain

// Factor identifies one of the seven analysis dimensions that contribute a
// score to the final weighted result.
type Factor string

const (
	FactorLiability         Factor = "liability"
	FactorExpertCredibility Factor = "expert_credibility"
	FactorInjury            Factor = "injury"
	FactorEvidence          Factor = "evidence"
	FactorEconomic          Factor = "economic"
	FactorNonEconomic       Factor = "non_economic"
	FactorInsurance         Factor = "insurance"
)

// String returns the factor identifier.
func (f Factor) String() string { return string(f) }

// allFactors is the fixed factor set in declaration order. Kept as a package
// variable so iteration order is stable everywhere it matters.
var allFactors = []Factor{
	FactorLiability,
	FactorInsurance,
	FactorInjury,
	FactorEvidence,
	FactorExpertCredibility,
	FactorEconomic,
	FactorNonEconomic,
}

// AllFactors returns the seven scoring factors in stable order.
// The returned slice is a copy and safe to retain.
func AllFactors() []Factor {
	out := make([]Factor, len(allFactors))
	copy(out, allFactors)
	return out
}

// PromptKey returns the blob-store key of the prompt template used to score
// this factor.
func (f Factor) PromptKey() string {
	switch f {
	case FactorLiability:
		return "liability_analysis_prompt.txt"
	case FactorExpertCredibility:
		return "expert_analysis_prompt.txt"
	case FactorInjury:
		return "injury_analysis_prompt.txt"
	case FactorEvidence:
		return "evidence_analysis_prompt.txt"
	case FactorEconomic:
		return "economic_impact_prompt.txt"
	case FactorNonEconomic:
		return "non_economic_impact_prompt.txt"
	case FactorInsurance:
		return "insurance_details_prompt.txt"
	default:
		return ""
	}
}

// ScoreToken returns the JSON field name the completion service emits for
// this factor. The stage invoker locates `"<token>": <number>` in the raw
// completion text; a missing token yields a zero score, not a failure.
func (f Factor) ScoreToken() string {
	switch f {
	case FactorLiability:
		return "liability_clarity_score"
	case FactorExpertCredibility:
		return "expert_credibility_score"
	case FactorInjury:
		return "injury_severity_score"
	case FactorEvidence:
		return "evidence_score"
	case FactorEconomic:
		return "economic_score"
	case FactorNonEconomic:
		return "non_economic_score"
	case FactorInsurance:
		return "insurance_score"
	default:
		return ""
	}
}

// Valid reports whether f is one of the seven known factors.
func (f Factor) Valid() bool {
	for _, known := range allFactors {
		if f == known {
			return true
		}
	}
	return false
}
