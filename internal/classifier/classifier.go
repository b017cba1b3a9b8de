// Package classifier turns free text into a five-way sentiment distribution.
package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/godilite/wellbeing-server/internal/domain"
)

// Classification is the result of classifying one journal entry.
type Classification struct {
	Category     domain.Category
	Distribution domain.Distribution
}

// Classifier is implemented by every text sentiment backend.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// FromDistribution derives the category from the distribution's rounded
// weighted mean and validates the result.
func FromDistribution(d domain.Distribution) (Classification, error) {
	c := Classification{Category: d.Category(), Distribution: d}
	if err := c.Validate(); err != nil {
		return Classification{}, err
	}
	return c, nil
}

// Validate rejects output that does not cover the five categories with
// percentages summing to 100.
func (c Classification) Validate() error {
	for i, v := range c.Distribution {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("%w: %s share %v outside [0,100]", domain.ErrClassificationUnavailable, domain.Category(i), v)
		}
	}
	if sum := c.Distribution.Sum(); math.Abs(sum-100) > domain.DistributionTolerance {
		return fmt.Errorf("%w: distribution sums to %.2f", domain.ErrClassificationUnavailable, sum)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("%w: category %d", domain.ErrClassificationUnavailable, int(c.Category))
	}
	return nil
}

// Disabled is used when no classifier backend is configured. Every call fails.
type Disabled struct{}

func (Disabled) Classify(context.Context, string) (Classification, error) {
	return Classification{}, fmt.Errorf("%w: no classifier configured", domain.ErrClassificationUnavailable)
}
