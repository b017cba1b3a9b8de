package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/wellbeing-server/internal/aggregator"
	"github.com/godilite/wellbeing-server/internal/classifier"
	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/service"
)

var (
	contractNow = time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)
	contractAgg = aggregator.New(time.UTC, func() time.Time { return contractNow })
)

func foldMood(t *testing.T, existing *domain.DailyRollup, user string, day time.Time, c domain.Category) domain.DailyRollup {
	t.Helper()
	r, err := contractAgg.Fold(existing, domain.Observation{User: user, Timestamp: day.Add(9 * time.Hour), Feature: domain.Mood, Category: c})
	require.NoError(t, err)
	return r
}

// runRollupRepositoryContract checks the behaviour every backend must share.
func runRollupRepositoryContract(t *testing.T, newRepo func(t *testing.T) service.RollupRepository) {
	ctx := context.Background()
	day := domain.NewDate(2025, 10, 18)

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(ctx, domain.RollupKey{User: "nobody", Date: day, Feature: domain.Mood})

		assert.ErrorIs(t, err, domain.ErrRollupNotFound)
	})

	t.Run("insert then read back", func(t *testing.T) {
		repo := newRepo(t)
		stress := 55.0
		r, err := contractAgg.Fold(nil, domain.Observation{
			User: "alice", Timestamp: day.Add(8 * time.Hour), Feature: domain.Mood,
			Category: domain.Positive, Stress: &stress,
		})
		require.NoError(t, err)

		require.NoError(t, repo.Upsert(ctx, r, 0))
		got, err := repo.Get(ctx, r.Key())

		require.NoError(t, err)
		assert.Equal(t, r.User, got.User)
		assert.True(t, r.Date.Equal(got.Date))
		assert.Equal(t, r.Feature, got.Feature)
		assert.Equal(t, r.Count, got.Count)
		assert.Equal(t, r.AverageScore, got.AverageScore)
		assert.Equal(t, r.CategoryTotals, got.CategoryTotals)
		assert.Equal(t, r.Dominant, got.Dominant)
		assert.Equal(t, r.StressCount, got.StressCount)
		assert.Equal(t, r.AverageStress, got.AverageStress)
		assert.Equal(t, r.Version, got.Version)
		assert.True(t, r.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("compare and swap", func(t *testing.T) {
		repo := newRepo(t)
		first := foldMood(t, nil, "bob", day, domain.Neutral)
		require.NoError(t, repo.Upsert(ctx, first, 0))

		err := repo.Upsert(ctx, first, 0)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdateConflict, "second create must conflict")

		second := foldMood(t, &first, "bob", day, domain.VeryPositive)
		require.NoError(t, repo.Upsert(ctx, second, first.Version))

		stale := foldMood(t, &first, "bob", day, domain.Negative)
		err = repo.Upsert(ctx, stale, first.Version)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdateConflict, "stale version must conflict")

		got, err := repo.Get(ctx, first.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Count)
		assert.Equal(t, 3.0, got.AverageScore)
		assert.Equal(t, second.Version, got.Version)
	})

	t.Run("update of a missing row conflicts", func(t *testing.T) {
		repo := newRepo(t)
		r := foldMood(t, nil, "ghost", day, domain.Neutral)
		r.Version = 2

		err := repo.Upsert(ctx, r, 1)

		assert.ErrorIs(t, err, domain.ErrConcurrentUpdateConflict)
	})

	t.Run("history and range ordering", func(t *testing.T) {
		repo := newRepo(t)
		for _, offset := range []int{0, -3, -1, -10} {
			d := day.AddDate(0, 0, offset)
			require.NoError(t, repo.Upsert(ctx, foldMood(t, nil, "carol", d, domain.Positive), 0))
		}
		// other users and features must not leak in
		require.NoError(t, repo.Upsert(ctx, foldMood(t, nil, "dave", day, domain.Positive), 0))
		journal, err := contractAgg.Fold(nil, domain.Observation{User: "carol", Timestamp: day, Feature: domain.Journal, Category: domain.Neutral})
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, journal, 0))

		history, err := repo.ListHistory(ctx, "carol", domain.Mood)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, "2025-10-18", domain.FormatDate(history[0].Date))
		assert.Equal(t, "2025-10-17", domain.FormatDate(history[1].Date))
		assert.Equal(t, "2025-10-15", domain.FormatDate(history[2].Date))
		assert.Equal(t, "2025-10-08", domain.FormatDate(history[3].Date))

		window, err := repo.ListRange(ctx, "carol", domain.Mood, day.AddDate(0, 0, -6), day)
		require.NoError(t, err)
		require.Len(t, window, 3)
		assert.Equal(t, "2025-10-15", domain.FormatDate(window[0].Date))
		assert.Equal(t, "2025-10-18", domain.FormatDate(window[2].Date))

		empty, err := repo.ListHistory(ctx, "erin", domain.Mood)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("concurrent folds lose no update", func(t *testing.T) {
		repo := newRepo(t)
		ingest := service.NewIngestService(repo, classifier.Disabled{}, contractAgg, zap.NewNop(),
			service.WithIngestConfig(service.IngestConfig{FoldMaxAttempts: 200, RetryBackoff: time.Microsecond}))

		const writers, perWriter = 8, 5
		var wg sync.WaitGroup
		errs := make(chan error, writers*perWriter)
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					c := domain.Category((w + i) % domain.NumCategories)
					if _, err := ingest.LogMood(ctx, "frank", c, nil, day.Add(12*time.Hour)); err != nil {
						errs <- err
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("fold failed: %v", err)
		}

		got, err := repo.Get(ctx, domain.RollupKey{User: "frank", Date: day, Feature: domain.Mood})
		require.NoError(t, err)
		assert.Equal(t, int64(writers*perWriter), got.Count)
		assert.Equal(t, got.Count, got.Version)
		assert.InDelta(t, float64(writers*perWriter), got.CategoryTotals.Sum(), 1e-9)
	})
}
