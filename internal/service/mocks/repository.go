package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
)

// MockRollupRepository is a mock implementation of the RollupRepository
// interface for testing the service layer.
type MockRollupRepository struct {
	GetFunc         func(ctx context.Context, key domain.RollupKey) (domain.DailyRollup, error)
	UpsertFunc      func(ctx context.Context, rollup domain.DailyRollup, expectedVersion int64) error
	ListHistoryFunc func(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error)
	ListRangeFunc   func(ctx context.Context, user string, feature domain.Feature, from, to time.Time) ([]domain.DailyRollup, error)
}

// Get implements the RollupRepository interface
func (m *MockRollupRepository) Get(ctx context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return domain.DailyRollup{}, errors.New("GetFunc not implemented")
}

// Upsert implements the RollupRepository interface
func (m *MockRollupRepository) Upsert(ctx context.Context, rollup domain.DailyRollup, expectedVersion int64) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, rollup, expectedVersion)
	}
	return errors.New("UpsertFunc not implemented")
}

// ListHistory implements the RollupRepository interface
func (m *MockRollupRepository) ListHistory(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx, user, feature)
	}
	return nil, errors.New("ListHistoryFunc not implemented")
}

// ListRange implements the RollupRepository interface
func (m *MockRollupRepository) ListRange(ctx context.Context, user string, feature domain.Feature, from, to time.Time) ([]domain.DailyRollup, error) {
	if m.ListRangeFunc != nil {
		return m.ListRangeFunc(ctx, user, feature, from, to)
	}
	return nil, errors.New("ListRangeFunc not implemented")
}
