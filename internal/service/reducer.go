package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/wellbeing-server/internal/aggregator"
	"github.com/godilite/wellbeing-server/internal/domain"
)

const (
	MaxSeriesDays = 366
	MaxTrendWeeks = 52
)

// Reducer turns stored daily rollups into gap-free series. It reads one
// window per call and never writes.
type Reducer struct {
	store  RollupRepository
	logger *zap.Logger
}

func NewReducer(store RollupRepository, logger *zap.Logger) *Reducer {
	if store == nil {
		panic("store must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{store: store, logger: logger}
}

// Weekly returns the 7 days ending at end.
func (r *Reducer) Weekly(ctx context.Context, user string, feature domain.Feature, end time.Time) (domain.Series, error) {
	return r.Series(ctx, user, feature, end, domain.WeekDays)
}

// Series returns exactly days points ending at end in ascending order. Days
// without a rollup are placeholders.
func (r *Reducer) Series(ctx context.Context, user string, feature domain.Feature, end time.Time, days int) (domain.Series, error) {
	if err := validateWindow(user, feature, days, MaxSeriesDays); err != nil {
		return domain.Series{}, err
	}
	end = domain.DateOf(end, time.UTC)
	start := end.AddDate(0, 0, -(days - 1))

	byDate, err := r.window(ctx, user, feature, start, end)
	if err != nil {
		return domain.Series{}, err
	}

	series := domain.Series{
		User:    user,
		Feature: feature,
		Start:   start,
		End:     end,
		Days:    make([]domain.DayPoint, 0, days),
	}

	var weighted float64
	var count int64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rollup, ok := byDate[domain.FormatDate(d)]
		if !ok || !rollup.HasData() {
			series.Days = append(series.Days, domain.PlaceholderDay(d))
			continue
		}
		series.Days = append(series.Days, domain.PointFromRollup(rollup))
		series.DaysWithData++
		weighted += rollup.AverageScore * float64(rollup.Count)
		count += rollup.Count
	}
	if count > 0 {
		series.AverageScore = weighted / float64(count)
	}

	r.logger.Debug("reduced series",
		zap.String("user", user),
		zap.Stringer("feature", feature),
		zap.Int("days", days),
		zap.Int("days_with_data", series.DaysWithData))

	return series, nil
}

// Trend returns weeks consecutive 7-day buckets ending at end, oldest first.
// Each bucket weights day averages by their observation counts and picks its
// dominant category from the summed totals.
func (r *Reducer) Trend(ctx context.Context, user string, feature domain.Feature, end time.Time, weeks int) (domain.Trend, error) {
	if err := validateWindow(user, feature, weeks, MaxTrendWeeks); err != nil {
		return domain.Trend{}, err
	}
	end = domain.DateOf(end, time.UTC)
	start := end.AddDate(0, 0, -(weeks*domain.WeekDays - 1))

	byDate, err := r.window(ctx, user, feature, start, end)
	if err != nil {
		return domain.Trend{}, err
	}

	trend := domain.Trend{User: user, Feature: feature, End: end, Weeks: make([]domain.WeekBucket, 0, weeks)}
	for w := 0; w < weeks; w++ {
		bStart := start.AddDate(0, 0, w*domain.WeekDays)
		bEnd := bStart.AddDate(0, 0, domain.WeekDays-1)

		var totals domain.Distribution
		var weighted float64
		bucket := domain.WeekBucket{Start: bStart, End: bEnd}
		for d := bStart; !d.After(bEnd); d = d.AddDate(0, 0, 1) {
			rollup, ok := byDate[domain.FormatDate(d)]
			if !ok || !rollup.HasData() {
				continue
			}
			bucket.DaysWithData++
			bucket.Count += rollup.Count
			weighted += rollup.AverageScore * float64(rollup.Count)
			for i, v := range rollup.CategoryTotals {
				totals[i] += v
			}
		}
		if bucket.Count > 0 {
			bucket.AverageScore = weighted / float64(bucket.Count)
		}
		bucket.Dominant = aggregator.Dominant(totals)
		bucket.DominantLabel = bucket.Dominant.Label(feature)
		bucket.Breakdown = totals.Normalized()
		trend.Weeks = append(trend.Weeks, bucket)
	}
	return trend, nil
}

func (r *Reducer) window(ctx context.Context, user string, feature domain.Feature, start, end time.Time) (map[string]domain.DailyRollup, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.store.ListRange(dbCtx, user, feature, start, end)
	if err != nil {
		r.logger.Error("failed to read rollup window",
			zap.String("user", user),
			zap.Stringer("feature", feature),
			zap.Error(err))
		return nil, storageErr(err)
	}

	byDate := make(map[string]domain.DailyRollup, len(rows))
	for _, row := range rows {
		byDate[domain.FormatDate(row.Date)] = row
	}
	return byDate, nil
}

func validateWindow(user string, feature domain.Feature, n, limit int) error {
	switch {
	case strings.TrimSpace(user) == "":
		return fmt.Errorf("%w: user is required", domain.ErrInvalidQuery)
	case !feature.Valid():
		return fmt.Errorf("%w: unknown feature %d", domain.ErrInvalidQuery, int(feature))
	case n < 1 || n > limit:
		return fmt.Errorf("%w: window %d outside [1,%d]", domain.ErrInvalidQuery, n, limit)
	}
	return nil
}
