package mocks

import (
	"context"

	"github.com/godilite/wellbeing-server/internal/classifier"
	"github.com/godilite/wellbeing-server/internal/domain"
)

// StaticClassifier returns the same distribution for every text, or Err when
// set.
type StaticClassifier struct {
	Distribution domain.Distribution
	Err          error
}

func (c StaticClassifier) Classify(ctx context.Context, text string) (classifier.Classification, error) {
	if c.Err != nil {
		return classifier.Classification{}, c.Err
	}
	return classifier.FromDistribution(c.Distribution)
}
