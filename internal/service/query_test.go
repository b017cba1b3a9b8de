package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/wellbeing-server/internal/aggregator"
	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/service/mocks"
)

var queryNow = time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)

func newQuery(repo RollupRepository) *QueryService {
	return NewQueryService(repo, time.UTC, zap.NewNop(), WithQueryClock(clockwork.NewFakeClockAt(queryNow)))
}

func rollup(day int, feature domain.Feature, count int64, avg float64, totals domain.Distribution) domain.DailyRollup {
	r := domain.DailyRollup{
		User:           "alice",
		Date:           domain.NewDate(2025, 1, day),
		Feature:        feature,
		Count:          count,
		AverageScore:   avg,
		CategoryTotals: totals,
		Version:        1,
	}
	r.Dominant = aggregator.Dominant(totals)
	return r
}

func rangeOf(rows ...domain.DailyRollup) func(context.Context, string, domain.Feature, time.Time, time.Time) ([]domain.DailyRollup, error) {
	return func(_ context.Context, _ string, _ domain.Feature, from, to time.Time) ([]domain.DailyRollup, error) {
		var out []domain.DailyRollup
		for _, r := range rows {
			if !r.Date.Before(from) && !r.Date.After(to) {
				out = append(out, r)
			}
		}
		return out, nil
	}
}

func TestWeekly(t *testing.T) {
	ctx := context.Background()

	t.Run("gap-free week with placeholders", func(t *testing.T) {
		repo := &mocks.MockRollupRepository{
			ListRangeFunc: rangeOf(
				rollup(10, domain.Journal, 2, 3.5, domain.Distribution{0, 0, 0, 100, 100}),
				rollup(12, domain.Journal, 1, 1, domain.Distribution{0, 100, 0, 0, 0}),
			),
		}

		s, err := newQuery(repo).Weekly(ctx, "alice", domain.Journal, time.Time{})

		require.NoError(t, err)
		require.Len(t, s.Days, 7)
		assert.True(t, domain.NewDate(2025, 1, 9).Equal(s.Start))
		assert.True(t, domain.NewDate(2025, 1, 15).Equal(s.End))
		for i, d := range s.Days {
			assert.True(t, s.Start.AddDate(0, 0, i).Equal(d.Date), "day %d out of order", i)
		}

		assert.False(t, s.Days[0].HasData)
		assert.Equal(t, "No Data", s.Days[0].DominantLabel)
		assert.Equal(t, domain.Distribution{}, s.Days[0].Breakdown)

		assert.True(t, s.Days[1].HasData)
		assert.Equal(t, "Mixed", s.Days[1].DominantLabel)
		assert.InDelta(t, 50.0, s.Days[1].Breakdown[domain.Positive], 1e-9)
		assert.Equal(t, "Negative", s.Days[3].DominantLabel)

		assert.Equal(t, 2, s.DaysWithData)
		assert.InDelta(t, (3.5*2+1)/3, s.AverageScore, 1e-9)
	})

	t.Run("no data at all", func(t *testing.T) {
		repo := &mocks.MockRollupRepository{ListRangeFunc: rangeOf()}

		s, err := newQuery(repo).Weekly(ctx, "alice", domain.Mood, domain.NewDate(2025, 1, 1))

		require.NoError(t, err)
		require.Len(t, s.Days, 7)
		assert.Equal(t, 0, s.DaysWithData)
		assert.Equal(t, 0.0, s.AverageScore)
		for _, d := range s.Days {
			assert.Equal(t, domain.NoData, d.Dominant)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &mocks.MockRollupRepository{
			ListRangeFunc: func(context.Context, string, domain.Feature, time.Time, time.Time) ([]domain.DailyRollup, error) {
				return nil, errors.New("connection reset")
			},
		}

		_, err := newQuery(repo).Weekly(ctx, "alice", domain.Mood, time.Time{})

		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}

func TestSeries_Window(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockRollupRepository{ListRangeFunc: rangeOf()}
	q := newQuery(repo)

	s, err := q.Series(ctx, "alice", domain.Mood, time.Time{}, 30)
	require.NoError(t, err)
	assert.Len(t, s.Days, 30)

	for _, days := range []int{0, -1, MaxSeriesDays + 1} {
		_, err := q.Series(ctx, "alice", domain.Mood, time.Time{}, days)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery, "days=%d", days)
	}

	_, err = q.Series(ctx, "", domain.Mood, time.Time{}, 7)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = q.Series(ctx, "alice", domain.Feature(42), time.Time{}, 7)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestSeries_EndUsesConfiguredZone(t *testing.T) {
	ctx := context.Background()
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	q := NewQueryService(&mocks.MockRollupRepository{ListRangeFunc: rangeOf()}, berlin, zap.NewNop(),
		WithQueryClock(clockwork.NewFakeClockAt(queryNow)))

	tests := []struct {
		name string
		end  time.Time
		want time.Time
	}{
		{"late UTC instant is the next day in Berlin", time.Date(2025, 1, 7, 23, 30, 0, 0, time.UTC), domain.NewDate(2025, 1, 8)},
		{"Berlin midnight", time.Date(2025, 1, 7, 0, 0, 0, 0, berlin), domain.NewDate(2025, 1, 7)},
		{"calendar date", domain.NewDate(2025, 1, 7), domain.NewDate(2025, 1, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := q.Weekly(ctx, "alice", domain.Mood, tt.end)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(s.End), "end = %s", s.End)

			trend, err := q.Trend(ctx, "alice", domain.Mood, tt.end, 2)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(trend.End), "trend end = %s", trend.End)
		})
	}
}

func TestTrend(t *testing.T) {
	repo := &mocks.MockRollupRepository{
		ListRangeFunc: rangeOf(
			// first bucket: Jan 2..8
			rollup(3, domain.Assessment, 3, 3, domain.Distribution{0, 0, 0, 3, 0}),
			rollup(5, domain.Assessment, 1, 1, domain.Distribution{0, 1, 0, 0, 0}),
			// second bucket: Jan 9..15
			rollup(14, domain.Assessment, 2, 2, domain.Distribution{0, 1, 0, 1, 0}),
		),
	}

	tr, err := newQuery(repo).Trend(context.Background(), "alice", domain.Assessment, time.Time{}, 2)

	require.NoError(t, err)
	require.Len(t, tr.Weeks, 2)

	first := tr.Weeks[0]
	assert.True(t, domain.NewDate(2025, 1, 2).Equal(first.Start))
	assert.True(t, domain.NewDate(2025, 1, 8).Equal(first.End))
	assert.Equal(t, 2, first.DaysWithData)
	assert.Equal(t, int64(4), first.Count)
	assert.InDelta(t, 2.5, first.AverageScore, 1e-9)
	assert.Equal(t, domain.Positive, first.Dominant)
	assert.InDelta(t, 75.0, first.Breakdown[domain.Positive], 1e-9)

	second := tr.Weeks[1]
	assert.Equal(t, domain.Mixed, second.Dominant)
	assert.Equal(t, "Mixed", second.DominantLabel)

	_, err = newQuery(repo).Trend(context.Background(), "alice", domain.Assessment, time.Time{}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestToday(t *testing.T) {
	ctx := context.Background()

	t.Run("absent rollup is No Data without side effects", func(t *testing.T) {
		repo := &mocks.MockRollupRepository{
			GetFunc: func(_ context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
				assert.True(t, domain.NewDate(2025, 1, 15).Equal(key.Date))
				return domain.DailyRollup{}, domain.ErrRollupNotFound
			},
			UpsertFunc: func(context.Context, domain.DailyRollup, int64) error {
				t.Fatal("queries must not write")
				return nil
			},
		}

		r, err := newQuery(repo).Today(ctx, "alice", domain.Mood)

		require.NoError(t, err)
		assert.False(t, r.HasData())
		assert.Equal(t, "No Data", r.DominantLabel())
		assert.Equal(t, "No Data", r.ScoreLabel())
	})

	t.Run("today follows the configured zone", func(t *testing.T) {
		var got time.Time
		repo := &mocks.MockRollupRepository{
			GetFunc: func(_ context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
				got = key.Date
				return domain.DailyRollup{}, domain.ErrRollupNotFound
			},
		}
		east := time.FixedZone("UTC+9", 9*60*60)
		q := NewQueryService(repo, east, zap.NewNop(), WithQueryClock(clockwork.NewFakeClockAt(queryNow)))

		_, err := q.Today(ctx, "alice", domain.Mood)

		require.NoError(t, err)
		assert.True(t, domain.NewDate(2025, 1, 16).Equal(got))
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &mocks.MockRollupRepository{}

		_, err := newQuery(repo).Today(ctx, "alice", domain.Mood)

		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}

func TestHistory(t *testing.T) {
	rows := []domain.DailyRollup{
		rollup(14, domain.Mood, 1, 2, domain.Distribution{0, 0, 1, 0, 0}),
		rollup(12, domain.Mood, 1, 3, domain.Distribution{0, 0, 0, 1, 0}),
	}
	repo := &mocks.MockRollupRepository{
		ListHistoryFunc: func(_ context.Context, user string, f domain.Feature) ([]domain.DailyRollup, error) {
			assert.Equal(t, "alice", user)
			assert.Equal(t, domain.Mood, f)
			return rows, nil
		},
	}

	got, err := newQuery(repo).History(context.Background(), "alice", domain.Mood)

	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = newQuery(repo).History(context.Background(), " ", domain.Mood)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestPending(t *testing.T) {
	repo := &mocks.MockRollupRepository{
		GetFunc: func(_ context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
			if key.Feature == domain.Mood {
				return rollup(15, domain.Mood, 1, 3, domain.Distribution{0, 0, 0, 1, 0}), nil
			}
			return domain.DailyRollup{}, domain.ErrRollupNotFound
		},
	}

	pending, err := newQuery(repo).Pending(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, []domain.Feature{domain.Journal, domain.Assessment}, pending)
}
