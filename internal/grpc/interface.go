package grpc

import (
	"context"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

type IngestService interface {
	SubmitJournal(ctx context.Context, user, text string, at time.Time) (service.FoldResult, error)
	LogMood(ctx context.Context, user string, mood domain.Category, stress *float64, at time.Time) (service.FoldResult, error)
	SubmitAssessment(ctx context.Context, user string, answers []domain.Category, at time.Time) (service.FoldResult, error)
}

type QueryService interface {
	Today(ctx context.Context, user string, feature domain.Feature) (domain.DailyRollup, error)
	History(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error)
	Weekly(ctx context.Context, user string, feature domain.Feature, end time.Time) (domain.Series, error)
	Series(ctx context.Context, user string, feature domain.Feature, end time.Time, days int) (domain.Series, error)
	Trend(ctx context.Context, user string, feature domain.Feature, end time.Time, weeks int) (domain.Trend, error)
	Pending(ctx context.Context, user string) ([]domain.Feature, error)
	TodayDate() time.Time
}
