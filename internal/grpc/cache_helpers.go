package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/metrics"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultSetTimeout        = 5 * time.Second
	defaultGenerationTimeout = 500 * time.Millisecond
	invalidateAttempts       = 3
	invalidateBackoff        = 20 * time.Millisecond
)

type CacheKeyType string

const (
	cacheKeyToday   CacheKeyType = "grpc:today"
	cacheKeyHistory CacheKeyType = "grpc:history"
	cacheKeySeries  CacheKeyType = "grpc:series"
	cacheKeyTrend   CacheKeyType = "grpc:trend"
)

// addTTLJitter adds up to ±15s random jitter to TTL to avoid mass expiration.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := time.Duration(rand.Intn(30)-15) * time.Second
	if ttl+jitter <= 0 {
		return ttl
	}
	return ttl + jitter
}

// generationKey names the counter bumped after every successful fold for
// (user, feature). Every cached read embeds its current value.
func generationKey(user string, feature domain.Feature) string {
	return fmt.Sprintf("grpc:gen:%s:%s", feature, url.QueryEscape(user))
}

func normalizeKey(prefix CacheKeyType, user string, feature domain.Feature, generation int64, parts ...string) string {
	key := fmt.Sprintf("%s:%s:%s:g%d", prefix, feature, url.QueryEscape(user), generation)
	if len(parts) > 0 {
		key += ":" + strings.Join(parts, ":")
	}
	return key
}

func fetchAndCacheInBackground[T any](
	ctx context.Context,
	c Cacher,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T

	value, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	go func(v T) {
		setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
		defer cancel()

		ttlWithJitter := addTTLJitter(ttl)
		if err := c.Set(setCtx, key, v, ttlWithJitter); err != nil {
			logger.Warn("failed to set cache on miss", zap.String("key", key), zap.Error(err))
		} else {
			logger.Debug("cache populated on miss", zap.String("key", key))
		}
	}(value)

	return value, nil
}

// FindAndCache implements read-through caching with singleflight. A nil cache
// calls fn directly.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	cm *metrics.CacheMetrics,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		return fn(ctx)
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		logger.Debug("cache hit", zap.String("key", key))
		cm.Lookup("hit")
		return cached, nil

	case errors.Is(err, redis.Nil):
		logger.Debug("cache miss", zap.String("key", key))
		cm.Lookup("miss")

	default:
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
		cm.Lookup("error")
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		return fetchAndCacheInBackground(ctx, c, key, ttl, logger, fn)
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
