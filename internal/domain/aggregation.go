package domain

import (
	"fmt"
	"math"
)

// Aggregate computes the final weighted score for a scored case context:
// the sum of score×weight over the seven factors. Missing scores and missing
// weight entries both contribute 0.
//
// Aggregate is a pure function: deterministic, side-effect free, and
// idempotent over identical inputs. Summation runs in fixed factor order so
// repeated calls produce bit-identical results; callers comparing across
// implementations should still allow a small floating-point epsilon.
//
// A non-finite score or weight fails aggregation rather than silently
// producing a NaN final score.
func Aggregate(caseCtx CaseContext, weights WeightVector) (float64, error) {
	var total float64
	for _, f := range allFactors {
		score := caseCtx.Score(f)
		weight := weights.Weight(f)
		if !isFinite(score) {
			return 0, fmt.Errorf("factor %s has non-finite score %v", f, score)
		}
		if !isFinite(weight) {
			return 0, fmt.Errorf("factor %s has non-finite weight %v", f, weight)
		}
		total += score * weight
	}
	if !isFinite(total) {
		return 0, fmt.Errorf("aggregated score is non-finite")
	}
	return total, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
