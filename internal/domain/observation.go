package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DistributionTolerance is how far the sum of a distribution may drift from
// 100 because of per-bucket rounding.
const DistributionTolerance = 2.0

// Distribution holds the percentage assigned to each bucket, indexed by
// Category.
type Distribution [NumCategories]float64

// Sum returns the total of all buckets.
func (d Distribution) Sum() float64 {
	var s float64
	for _, v := range d {
		s += v
	}
	return s
}

// WeightedMean returns Σ i·pᵢ / Σ pᵢ, or 0 for an empty distribution.
func (d Distribution) WeightedMean() float64 {
	sum := d.Sum()
	if sum == 0 {
		return 0
	}
	var w float64
	for i, v := range d {
		w += float64(i) * v
	}
	return w / sum
}

// Category returns the bucket of the rounded weighted mean.
func (d Distribution) Category() Category {
	return CategoryFromScore(d.WeightedMean())
}

// OneHot returns the contribution of a single discrete pick.
func OneHot(c Category) Distribution {
	var d Distribution
	if c.Valid() {
		d[c] = 1
	}
	return d
}

// Observation is one user action normalized to a common shape.
type Observation struct {
	ID        uuid.UUID
	User      string
	Timestamp time.Time
	Feature   Feature
	Category  Category
	// Distribution is set for text-derived sentiment. Nil means one-hot at
	// Category.
	Distribution *Distribution
	// Stress is the 0..100 stress level reported with a mood log.
	Stress *float64
}

// Score returns the observation score on the 0..4 scale.
func (o Observation) Score() float64 {
	return o.Category.Score()
}

// Contribution returns what this observation adds to the rollup totals.
func (o Observation) Contribution() Distribution {
	if o.Distribution != nil {
		return *o.Distribution
	}
	return OneHot(o.Category)
}

// Key returns the rollup key the observation folds into.
func (o Observation) Key(loc *time.Location) RollupKey {
	return RollupKey{User: o.User, Date: DateOf(o.Timestamp, loc), Feature: o.Feature}
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
