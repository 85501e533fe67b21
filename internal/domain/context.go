// Package domain provides the core types and pure business logic for legal
// case scoring: the canonical case context threaded through the pipeline,
// the scoring factors, jurisdiction weight vectors, stage results, and the
// weighted score aggregation function.
//
// Everything in this package is free of I/O and safe for deterministic
// workflow execution.
package domain

// DocumentRef identifies a stored source document by bucket and key.
type DocumentRef struct {
	Bucket string `json:"bucket" validate:"required"`
	Key    string `json:"key"    validate:"required"`
}

// IsZero reports whether the reference is unset.
func (r DocumentRef) IsZero() bool { return r.Bucket == "" && r.Key == "" }

// CaseContext is the canonical record threaded through the scoring pipeline.
// Identity and content fields are set once by a single stage and read-only
// downstream; score fields are each written by exactly one analysis factor.
//
// A CaseContext is also used as a fragment: a partial context produced by one
// branch of a fan-out stage, later merged by the coordinator. Fragments carry
// only the fields their producing stage added.
type CaseContext struct {
	// Identity fields, immutable once set.
	CaseID string `json:"caseId,omitempty"`
	Email  string `json:"email,omitempty"`

	// Content fields, set once and read-only downstream.
	DocumentRef   DocumentRef `json:"documentRef,omitzero"`
	ExtractedText string      `json:"extractedText,omitempty"`
	CaseSummary   string      `json:"caseSummary,omitempty"`
	CaseType      string      `json:"caseType,omitempty"`

	// Score fields, one per analysis factor. Absent means 0.
	LiabilityScore         float64 `json:"liabilityScore,omitempty"`
	InsuranceScore         float64 `json:"insuranceScore,omitempty"`
	InjuryScore            float64 `json:"injuryScore,omitempty"`
	EvidenceScore          float64 `json:"evidenceScore,omitempty"`
	ExpertCredibilityScore float64 `json:"expertCredibilityScore,omitempty"`
	EconomicScore          float64 `json:"economicScore,omitempty"`
	NonEconomicScore       float64 `json:"nonEconomicScore,omitempty"`
}

// Score returns the value of the score field owned by the given factor.
func (c CaseContext) Score(f Factor) float64 {
	switch f {
	case FactorLiability:
		return c.LiabilityScore
	case FactorInsurance:
		return c.InsuranceScore
	case FactorInjury:
		return c.InjuryScore
	case FactorEvidence:
		return c.EvidenceScore
	case FactorExpertCredibility:
		return c.ExpertCredibilityScore
	case FactorEconomic:
		return c.EconomicScore
	case FactorNonEconomic:
		return c.NonEconomicScore
	default:
		return 0
	}
}

// SetScore writes the score field owned by the given factor.
func (c *CaseContext) SetScore(f Factor, v float64) {
	switch f {
	case FactorLiability:
		c.LiabilityScore = v
	case FactorInsurance:
		c.InsuranceScore = v
	case FactorInjury:
		c.InjuryScore = v
	case FactorEvidence:
		c.EvidenceScore = v
	case FactorExpertCredibility:
		c.ExpertCredibilityScore = v
	case FactorEconomic:
		c.EconomicScore = v
	case FactorNonEconomic:
		c.NonEconomicScore = v
	}
}

// MergeFragments folds branch fragments into a base context in declaration
// order. Score fields accumulate by summation so that scores contributed by
// earlier stages survive a later fan-in. Identity and content fields keep the
// first non-empty value, which preserves the set-once invariant and makes the
// merge deterministic regardless of branch completion order.
func MergeFragments(base CaseContext, fragments ...CaseContext) CaseContext {
	merged := base
	for _, frag := range fragments {
		if merged.CaseID == "" {
			merged.CaseID = frag.CaseID
		}
		if merged.Email == "" {
			merged.Email = frag.Email
		}
		if merged.DocumentRef.IsZero() {
			merged.DocumentRef = frag.DocumentRef
		}
		if merged.ExtractedText == "" {
			merged.ExtractedText = frag.ExtractedText
		}
		if merged.CaseSummary == "" {
			merged.CaseSummary = frag.CaseSummary
		}
		if merged.CaseType == "" {
			merged.CaseType = frag.CaseType
		}
		for _, f := range AllFactors() {
			if v := frag.Score(f); v != 0 {
				merged.SetScore(f, merged.Score(f)+v)
			}
		}
	}
	return merged
}
