package domain

import "maps"

// WeightVector maps factors to jurisdiction-specific weights. It is fetched
// once per run, immutable after construction, and safe to cache and share
// across runs within a process.
type WeightVector struct {
	JurisdictionID string             `json:"jurisdictionId"`
	Weights        map[Factor]float64 `json:"weights"`
}

// NewWeightVector builds a weight vector over a copy of the given weights so
// later mutation of the input map cannot leak into cached vectors.
func NewWeightVector(jurisdictionID string, weights map[Factor]float64) WeightVector {
	copied := make(map[Factor]float64, len(weights))
	maps.Copy(copied, weights)
	return WeightVector{JurisdictionID: jurisdictionID, Weights: copied}
}

// Weight returns the weight for a factor; a missing entry contributes 0.
func (w WeightVector) Weight(f Factor) float64 {
	return w.Weights[f]
}

// IsZero reports whether the vector carries no weights at all, which is
// treated as a missing jurisdiction entry by the aggregation stage.
func (w WeightVector) IsZero() bool { return len(w.Weights) == 0 }
