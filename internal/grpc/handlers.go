package grpc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/godilite/wellbeing-server/api/v1"
	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/metrics"
	"github.com/godilite/wellbeing-server/pkg/retry"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
)

// msgSaveFailed is the user-visible message of every failed write.
const msgSaveFailed = "could not save entry, please retry"

type GRPCHandlers struct {
	pb.UnimplementedWellbeingServer
	ingest       IngestService
	query        QueryService
	cache        Cacher
	cacheMetrics *metrics.CacheMetrics
	logger       *zap.Logger
	sfGroup      singleflight.Group
	cacheTTL     time.Duration
	unbumped     sync.Map // generation keys whose last bump failed
}

type HandlerOption func(*GRPCHandlers)

func WithCacheMetrics(m *metrics.CacheMetrics) HandlerOption {
	return func(h *GRPCHandlers) { h.cacheMetrics = m }
}

// NewGRPCHandlers initializes the gRPC handlers. A nil cache disables caching.
func NewGRPCHandlers(ingest IngestService, query QueryService, cache Cacher, logger *zap.Logger, ttl time.Duration, opts ...HandlerOption) *GRPCHandlers {
	if ingest == nil {
		panic("nil IngestService provided to NewGRPCHandlers")
	}
	if query == nil {
		panic("nil QueryService provided to NewGRPCHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &GRPCHandlers{
		ingest:   ingest,
		query:    query,
		cache:    cache,
		logger:   logger.Named("grpc-handler"),
		cacheTTL: ttl,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "timestamp must be RFC 3339: %q", s)
	}
	return t, nil
}

func parseSubject(user, feature string) (string, domain.Feature, error) {
	if strings.TrimSpace(user) == "" {
		return "", 0, status.Error(codes.InvalidArgument, "user is required")
	}
	f, err := domain.ParseFeature(feature)
	if err != nil {
		return "", 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return user, f, nil
}

// parseEnd resolves an optional end date, defaulting to today.
func (s *GRPCHandlers) parseEnd(end string) (time.Time, error) {
	if end == "" {
		return s.query.TodayDate(), nil
	}
	d, err := domain.ParseDate(end)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "end must be YYYY-MM-DD: %q", end)
	}
	return d, nil
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error, write bool) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, domain.ErrInvalidObservation), errors.Is(err, domain.ErrInvalidQuery):
		s.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdateConflict):
		s.logger.Warn("fold conflict not resolved", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Aborted, msgSaveFailed)
	case errors.Is(err, domain.ErrClassificationUnavailable):
		s.logger.Warn("classifier unavailable", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, msgSaveFailed)
	case errors.Is(err, domain.ErrStorageUnavailable):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		if write {
			return status.Error(codes.Unavailable, msgSaveFailed)
		}
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		if write {
			return status.Error(codes.Internal, msgSaveFailed)
		}
		return status.Errorf(codes.Internal, "%s failed", op)
	}
}

// generation returns the cache generation of (user, feature). ok is false when
// the counter cannot be read, in which case the caller skips the cache.
func (s *GRPCHandlers) generation(ctx context.Context, user string, feature domain.Feature) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, defaultGenerationTimeout)
	defer cancel()

	key := generationKey(user, feature)
	if _, stale := s.unbumped.Load(key); stale {
		if err := s.bump(ctx, key); err != nil {
			return 0, false
		}
		s.unbumped.Delete(key)
	}

	gen, err := s.cache.Counter(ctx, key)
	if err != nil {
		s.logger.Warn("cache generation unavailable, bypassing cache", zap.String("user", user), zap.Stringer("feature", feature), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// invalidate bumps the generation after a successful fold so no cached read
// of the old state is served again. If every bump attempt fails the key is
// marked unbumped and reads bypass the cache until a bump succeeds.
func (s *GRPCHandlers) invalidate(ctx context.Context, user string, feature domain.Feature) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultGenerationTimeout)
	defer cancel()

	key := generationKey(user, feature)
	if err := s.bump(ctx, key); err != nil {
		s.unbumped.Store(key, struct{}{})
		s.logger.Error("failed to bump cache generation, bypassing cache for subject",
			zap.String("user", user), zap.Stringer("feature", feature), zap.Error(err))
		return
	}
	s.unbumped.Delete(key)
}

func (s *GRPCHandlers) bump(ctx context.Context, key string) error {
	policy := retry.Policy{
		MaxAttempts:    invalidateAttempts,
		InitialBackoff: invalidateBackoff,
		Jitter:         true,
	}
	_, err := retry.Do(ctx, policy, retry.Always, func(int) (int64, error) {
		return s.cache.Incr(ctx, key)
	})
	return err
}

// cached serves fn through the read-through cache when a generation is known.
func cached[T any](ctx context.Context, s *GRPCHandlers, prefix CacheKeyType, user string, feature domain.Feature, parts []string, fn FetchFunc[T]) (T, error) {
	gen, ok := s.generation(ctx, user, feature)
	if !ok {
		return fn(ctx)
	}
	key := normalizeKey(prefix, user, feature, gen, parts...)
	return FindAndCache(ctx, s.cache, &s.sfGroup, key, s.cacheTTL, s.logger, s.cacheMetrics, fn)
}

func (s *GRPCHandlers) SubmitJournal(ctx context.Context, req *pb.SubmitJournalRequest) (*pb.WriteResponse, error) {
	at, err := parseTimestamp(req.GetTimestamp())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	res, err := s.ingest.SubmitJournal(ctx, req.GetUser(), req.GetText(), at)
	if err != nil {
		return nil, s.handleError(ctx, "SubmitJournal", err, true)
	}
	s.invalidate(ctx, res.Rollup.User, res.Rollup.Feature)
	return toWriteResponse(res), nil
}

func (s *GRPCHandlers) LogMood(ctx context.Context, req *pb.LogMoodRequest) (*pb.WriteResponse, error) {
	mood, err := domain.ParseCategory(req.GetMood())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	at, err := parseTimestamp(req.GetTimestamp())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	res, err := s.ingest.LogMood(ctx, req.GetUser(), mood, req.GetStress(), at)
	if err != nil {
		return nil, s.handleError(ctx, "LogMood", err, true)
	}
	s.invalidate(ctx, res.Rollup.User, res.Rollup.Feature)
	return toWriteResponse(res), nil
}

func (s *GRPCHandlers) SubmitAssessment(ctx context.Context, req *pb.SubmitAssessmentRequest) (*pb.WriteResponse, error) {
	answers := make([]domain.Category, len(req.GetAnswers()))
	for i, a := range req.GetAnswers() {
		c, err := domain.ParseCategory(a)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "answer %d: %v", i+1, err)
		}
		answers[i] = c
	}
	at, err := parseTimestamp(req.GetTimestamp())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	res, err := s.ingest.SubmitAssessment(ctx, req.GetUser(), answers, at)
	if err != nil {
		return nil, s.handleError(ctx, "SubmitAssessment", err, true)
	}
	s.invalidate(ctx, res.Rollup.User, res.Rollup.Feature)
	return toWriteResponse(res), nil
}

func (s *GRPCHandlers) GetToday(ctx context.Context, req *pb.RollupRequest) (*pb.RollupResponse, error) {
	user, feature, err := parseSubject(req.GetUser(), req.GetFeature())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	day := domain.FormatDate(s.query.TodayDate())
	rollup, err := cached(ctx, s, cacheKeyToday, user, feature, []string{day}, func(fetchCtx context.Context) (*pb.Rollup, error) {
		r, err := s.query.Today(fetchCtx, user, feature)
		if err != nil {
			return nil, err
		}
		return toPBRollup(r), nil
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetToday", err, false)
	}
	return &pb.RollupResponse{Rollup: rollup}, nil
}

func (s *GRPCHandlers) GetHistory(ctx context.Context, req *pb.RollupRequest) (*pb.HistoryResponse, error) {
	user, feature, err := parseSubject(req.GetUser(), req.GetFeature())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	rollups, err := cached(ctx, s, cacheKeyHistory, user, feature, nil, func(fetchCtx context.Context) ([]*pb.Rollup, error) {
		history, err := s.query.History(fetchCtx, user, feature)
		if err != nil {
			return nil, err
		}
		out := make([]*pb.Rollup, len(history))
		for i, r := range history {
			out[i] = toPBRollup(r)
		}
		return out, nil
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetHistory", err, false)
	}
	return &pb.HistoryResponse{Rollups: rollups}, nil
}

func (s *GRPCHandlers) GetWeekly(ctx context.Context, req *pb.SeriesRequest) (*pb.SeriesResponse, error) {
	return s.series(ctx, "GetWeekly", req, domain.WeekDays)
}

func (s *GRPCHandlers) GetSeries(ctx context.Context, req *pb.SeriesRequest) (*pb.SeriesResponse, error) {
	return s.series(ctx, "GetSeries", req, req.GetDays())
}

func (s *GRPCHandlers) series(ctx context.Context, op string, req *pb.SeriesRequest, days int) (*pb.SeriesResponse, error) {
	user, feature, err := parseSubject(req.GetUser(), req.GetFeature())
	if err != nil {
		return nil, err
	}
	end, err := s.parseEnd(req.GetEnd())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	parts := []string{domain.FormatDate(end), strconv.Itoa(days)}
	resp, err := cached(ctx, s, cacheKeySeries, user, feature, parts, func(fetchCtx context.Context) (*pb.SeriesResponse, error) {
		var series domain.Series
		var err error
		if days == domain.WeekDays {
			series, err = s.query.Weekly(fetchCtx, user, feature, end)
		} else {
			series, err = s.query.Series(fetchCtx, user, feature, end, days)
		}
		if err != nil {
			return nil, err
		}
		return toPBSeries(series), nil
	})
	if err != nil {
		return nil, s.handleError(ctx, op, err, false)
	}
	return resp, nil
}

func (s *GRPCHandlers) GetTrend(ctx context.Context, req *pb.TrendRequest) (*pb.TrendResponse, error) {
	user, feature, err := parseSubject(req.GetUser(), req.GetFeature())
	if err != nil {
		return nil, err
	}
	end, err := s.parseEnd(req.GetEnd())
	if err != nil {
		return nil, err
	}
	weeks := req.GetWeeks()

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	parts := []string{domain.FormatDate(end), strconv.Itoa(weeks)}
	resp, err := cached(ctx, s, cacheKeyTrend, user, feature, parts, func(fetchCtx context.Context) (*pb.TrendResponse, error) {
		trend, err := s.query.Trend(fetchCtx, user, feature, end, weeks)
		if err != nil {
			return nil, err
		}
		return toPBTrend(trend), nil
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetTrend", err, false)
	}
	return resp, nil
}

func (s *GRPCHandlers) GetPending(ctx context.Context, req *pb.PendingRequest) (*pb.PendingResponse, error) {
	if strings.TrimSpace(req.GetUser()) == "" {
		return nil, status.Error(codes.InvalidArgument, "user is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	day := s.query.TodayDate()
	pending, err := s.query.Pending(ctx, req.GetUser())
	if err != nil {
		return nil, s.handleError(ctx, "GetPending", err, false)
	}

	features := make([]string, len(pending))
	for i, f := range pending {
		features[i] = f.String()
	}
	return &pb.PendingResponse{Date: domain.FormatDate(day), Features: features}, nil
}
