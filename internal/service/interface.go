package service

import (
	"context"
	"time"

	"github.com/godilite/wellbeing-server/internal/classifier"
	"github.com/godilite/wellbeing-server/internal/domain"
)

// RollupRepository defines the storage operations the services need.
//
// Upsert is a compare-and-swap: expectedVersion 0 means the rollup must not
// exist yet, otherwise the stored version must equal expectedVersion. A
// mismatch returns domain.ErrConcurrentUpdateConflict.
type RollupRepository interface {
	Get(ctx context.Context, key domain.RollupKey) (domain.DailyRollup, error)
	Upsert(ctx context.Context, rollup domain.DailyRollup, expectedVersion int64) error
	ListHistory(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error)
	ListRange(ctx context.Context, user string, feature domain.Feature, from, to time.Time) ([]domain.DailyRollup, error)
}

// Classifier turns journal text into a sentiment classification.
type Classifier interface {
	Classify(ctx context.Context, text string) (classifier.Classification, error)
}
