package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/godilite/wellbeing-server/internal/aggregator"
	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/metrics"
	"github.com/godilite/wellbeing-server/pkg/retry"
)

const (
	dbTimeout         = 1 * time.Second
	classifierTimeout = 15 * time.Second

	DefaultFoldMaxAttempts = 5
	DefaultMaxAnswers      = 5
	defaultRetryBackoff    = 5 * time.Millisecond
	maxRetryBackoff        = 100 * time.Millisecond
)

// IngestConfig bounds the fold-then-persist cycle.
type IngestConfig struct {
	FoldMaxAttempts int
	MaxAnswers      int
	RetryBackoff    time.Duration
}

// FoldResult reports what a write accepted.
type FoldResult struct {
	Observations []domain.Observation
	Rollup       domain.DailyRollup
	Attempts     int
}

// IngestService turns user actions into observations and folds them into the
// stored daily rollups.
type IngestService struct {
	store      RollupRepository
	classifier Classifier
	agg        *aggregator.Aggregator
	clock      clockwork.Clock
	cfg        IngestConfig
	metrics    *metrics.FoldMetrics
	logger     *zap.Logger
}

type IngestOption func(*IngestService)

func WithIngestClock(c clockwork.Clock) IngestOption {
	return func(s *IngestService) { s.clock = c }
}

func WithFoldMetrics(m *metrics.FoldMetrics) IngestOption {
	return func(s *IngestService) { s.metrics = m }
}

func WithIngestConfig(cfg IngestConfig) IngestOption {
	return func(s *IngestService) { s.cfg = cfg }
}

// NewIngestService creates a new IngestService instance.
func NewIngestService(store RollupRepository, cls Classifier, agg *aggregator.Aggregator, logger *zap.Logger, opts ...IngestOption) *IngestService {
	if store == nil {
		panic("store must not be nil")
	}
	if cls == nil {
		panic("classifier must not be nil")
	}
	if agg == nil {
		agg = aggregator.New(time.UTC, nil)
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &IngestService{
		store:      store,
		classifier: cls,
		agg:        agg,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.FoldMaxAttempts < 1 {
		s.cfg.FoldMaxAttempts = DefaultFoldMaxAttempts
	}
	if s.cfg.MaxAnswers < 1 {
		s.cfg.MaxAnswers = DefaultMaxAnswers
	}
	if s.cfg.RetryBackoff <= 0 {
		s.cfg.RetryBackoff = defaultRetryBackoff
	}
	return s
}

// SubmitJournal classifies text and folds the resulting distribution into the
// user's journal rollup. A classifier failure folds nothing.
func (s *IngestService) SubmitJournal(ctx context.Context, user, text string, at time.Time) (FoldResult, error) {
	if strings.TrimSpace(user) == "" {
		return FoldResult{}, fmt.Errorf("%w: user is required", domain.ErrInvalidObservation)
	}
	if strings.TrimSpace(text) == "" {
		return FoldResult{}, fmt.Errorf("%w: journal entry is empty", domain.ErrInvalidObservation)
	}

	clsCtx, cancel := context.WithTimeout(ctx, classifierTimeout)
	defer cancel()

	c, err := s.classifier.Classify(clsCtx, text)
	if err != nil {
		s.metrics.Observe(domain.Journal.String(), "classifier_error", 0)
		s.logger.Warn("journal classification failed", zap.String("user", user), zap.Error(err))
		if !errors.Is(err, domain.ErrClassificationUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrClassificationUnavailable, err)
		}
		return FoldResult{}, err
	}
	if err := c.Validate(); err != nil {
		s.metrics.Observe(domain.Journal.String(), "classifier_error", 0)
		return FoldResult{}, err
	}

	dist := c.Distribution
	return s.Fold(ctx, domain.Observation{
		User:         user,
		Timestamp:    s.timestamp(at),
		Feature:      domain.Journal,
		Category:     c.Category,
		Distribution: &dist,
	})
}

// LogMood folds one mood pick, with an optional stress level, into the
// user's mood rollup.
func (s *IngestService) LogMood(ctx context.Context, user string, mood domain.Category, stress *float64, at time.Time) (FoldResult, error) {
	return s.Fold(ctx, domain.Observation{
		User:      user,
		Timestamp: s.timestamp(at),
		Feature:   domain.Mood,
		Category:  mood,
		Stress:    stress,
	})
}

// SubmitAssessment folds every answer of one assessment session in a single
// read-fold-write, so a session is either fully counted or not at all.
func (s *IngestService) SubmitAssessment(ctx context.Context, user string, answers []domain.Category, at time.Time) (FoldResult, error) {
	if len(answers) == 0 || len(answers) > s.cfg.MaxAnswers {
		return FoldResult{}, fmt.Errorf("%w: assessment needs 1..%d answers, got %d",
			domain.ErrInvalidObservation, s.cfg.MaxAnswers, len(answers))
	}

	ts := s.timestamp(at)
	batch := make([]domain.Observation, len(answers))
	for i, a := range answers {
		batch[i] = domain.Observation{User: user, Timestamp: ts, Feature: domain.Assessment, Category: a}
	}
	return s.Fold(ctx, batch...)
}

// Fold validates the observations, then reads the current rollup, folds and
// writes it back with a compare-and-swap. Conflicts are retried up to
// FoldMaxAttempts times; any failure leaves the stored rollup unchanged.
func (s *IngestService) Fold(ctx context.Context, batch ...domain.Observation) (FoldResult, error) {
	if len(batch) == 0 {
		return FoldResult{}, fmt.Errorf("%w: nothing to fold", domain.ErrInvalidObservation)
	}
	feature := batch[0].Feature.String()

	batch = append([]domain.Observation(nil), batch...)
	for i := range batch {
		if batch[i].ID == uuid.Nil {
			batch[i].ID = uuid.New()
		}
	}
	if _, err := s.agg.FoldAll(nil, batch...); err != nil {
		s.metrics.Observe(feature, "invalid", 0)
		return FoldResult{}, err
	}
	key := batch[0].Key(s.agg.Location())

	policy := retry.Policy{
		MaxAttempts:    s.cfg.FoldMaxAttempts,
		InitialBackoff: s.cfg.RetryBackoff,
		MaxBackoff:     maxRetryBackoff,
		Jitter:         true,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.logger.Debug("retrying fold after conflict",
				zap.Stringer("key", key),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
		},
	}

	attempts := 0
	rollup, err := retry.Do(ctx, policy, retryOnConflict, func(attempt int) (domain.DailyRollup, error) {
		attempts = attempt
		next, err := s.foldOnce(ctx, key, batch)
		if errors.Is(err, domain.ErrConcurrentUpdateConflict) {
			s.metrics.Conflict(feature)
		}
		return next, err
	})
	if err != nil {
		s.metrics.Observe(feature, resultLabel(err), attempts)
		s.logger.Error("fold failed",
			zap.Stringer("key", key),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return FoldResult{}, err
	}

	s.metrics.Observe(feature, "ok", attempts)
	s.logger.Info("folded observations",
		zap.Stringer("key", key),
		zap.Int("observations", len(batch)),
		zap.Int64("count", rollup.Count),
		zap.Float64("average", rollup.AverageScore),
		zap.String("dominant", rollup.DominantLabel()),
		zap.Int("attempts", attempts))

	return FoldResult{Observations: batch, Rollup: rollup, Attempts: attempts}, nil
}

func (s *IngestService) foldOnce(ctx context.Context, key domain.RollupKey, batch []domain.Observation) (domain.DailyRollup, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		existing *domain.DailyRollup
		expected int64
	)
	current, err := s.store.Get(dbCtx, key)
	switch {
	case err == nil:
		existing = &current
		expected = current.Version
	case errors.Is(err, domain.ErrRollupNotFound):
	default:
		return domain.DailyRollup{}, storageErr(err)
	}

	next, err := s.agg.FoldAll(existing, batch...)
	if err != nil {
		return domain.DailyRollup{}, err
	}
	if err := s.store.Upsert(dbCtx, next, expected); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdateConflict) {
			return domain.DailyRollup{}, err
		}
		return domain.DailyRollup{}, storageErr(err)
	}
	return next, nil
}

func (s *IngestService) timestamp(at time.Time) time.Time {
	if at.IsZero() {
		return s.clock.Now()
	}
	return at
}

func retryOnConflict(err error) retry.Action {
	if errors.Is(err, domain.ErrConcurrentUpdateConflict) {
		return retry.Retry
	}
	return retry.Stop
}

func storageErr(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrConcurrentUpdateConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidObservation):
		return "invalid"
	default:
		return "storage_error"
	}
}
