package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/godilite/wellbeing-server/internal/domain"
)

// QueryService is the read-only façade consumers use. It never mutates state.
type QueryService struct {
	store   RollupRepository
	reducer *Reducer
	clock   clockwork.Clock
	loc     *time.Location
	logger  *zap.Logger
}

type QueryOption func(*QueryService)

func WithQueryClock(c clockwork.Clock) QueryOption {
	return func(s *QueryService) { s.clock = c }
}

// NewQueryService creates a QueryService. loc decides which calendar day is
// "today".
func NewQueryService(store RollupRepository, loc *time.Location, logger *zap.Logger, opts ...QueryOption) *QueryService {
	if store == nil {
		panic("store must not be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &QueryService{
		store:   store,
		reducer: NewReducer(store, logger.Named("reducer")),
		clock:   clockwork.NewRealClock(),
		loc:     loc,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the user's rollup for the current day, or an empty "No Data"
// rollup when nothing was recorded.
func (s *QueryService) Today(ctx context.Context, user string, feature domain.Feature) (domain.DailyRollup, error) {
	if err := validateSubject(user, feature); err != nil {
		return domain.DailyRollup{}, err
	}
	key := domain.RollupKey{User: user, Date: s.today(), Feature: feature}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	r, err := s.store.Get(dbCtx, key)
	if errors.Is(err, domain.ErrRollupNotFound) {
		return domain.EmptyRollup(key), nil
	}
	if err != nil {
		s.logger.Error("failed to fetch today's rollup", zap.Stringer("key", key), zap.Error(err))
		return domain.DailyRollup{}, storageErr(err)
	}
	return r, nil
}

// History returns every stored rollup of the user for feature, newest first.
func (s *QueryService) History(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error) {
	if err := validateSubject(user, feature); err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.store.ListHistory(dbCtx, user, feature)
	if err != nil {
		s.logger.Error("failed to fetch history", zap.String("user", user), zap.Stringer("feature", feature), zap.Error(err))
		return nil, storageErr(err)
	}
	return rows, nil
}

// Weekly returns the 7 days ending at end. A zero end means today.
func (s *QueryService) Weekly(ctx context.Context, user string, feature domain.Feature, end time.Time) (domain.Series, error) {
	return s.reducer.Weekly(ctx, user, feature, s.endOrToday(end))
}

// Series returns days points ending at end. A zero end means today.
func (s *QueryService) Series(ctx context.Context, user string, feature domain.Feature, end time.Time, days int) (domain.Series, error) {
	return s.reducer.Series(ctx, user, feature, s.endOrToday(end), days)
}

// Trend returns weekly buckets ending at end. A zero end means today.
func (s *QueryService) Trend(ctx context.Context, user string, feature domain.Feature, end time.Time, weeks int) (domain.Trend, error) {
	return s.reducer.Trend(ctx, user, feature, s.endOrToday(end), weeks)
}

// Pending lists the features the user has not recorded anything for today.
func (s *QueryService) Pending(ctx context.Context, user string) ([]domain.Feature, error) {
	var pending []domain.Feature
	for _, f := range domain.Features() {
		r, err := s.Today(ctx, user, f)
		if err != nil {
			return nil, err
		}
		if !r.HasData() {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// TodayDate returns the current calendar date in the configured zone.
func (s *QueryService) TodayDate() time.Time {
	return s.today()
}

func (s *QueryService) today() time.Time {
	return domain.DateOf(s.clock.Now(), s.loc)
}

// endOrToday resolves end to a calendar date. A midnight-UTC value is already
// a date; any other instant takes its date in the configured zone.
func (s *QueryService) endOrToday(end time.Time) time.Time {
	switch {
	case end.IsZero():
		return s.today()
	case end.Location() == time.UTC && end.Equal(domain.DateOf(end, time.UTC)):
		return end
	}
	return domain.DateOf(end, s.loc)
}

func validateSubject(user string, feature domain.Feature) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: user is required", domain.ErrInvalidQuery)
	}
	if !feature.Valid() {
		return fmt.Errorf("%w: unknown feature %d", domain.ErrInvalidQuery, int(feature))
	}
	return nil
}
