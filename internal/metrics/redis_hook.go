package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RedisHook implements redis.Hook to collect metrics on every Redis command.
type RedisHook struct {
	Ops        *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	DialErrors prometheus.Counter
}

var _ redis.Hook = (*RedisHook)(nil)

// NewRedisHook creates and registers Redis metrics on the given registry.
func NewRedisHook(reg prometheus.Registerer) *RedisHook {
	h := &RedisHook{
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Redis operations by operation and status.",
		}, []string{"operation", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Redis operation duration in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Redis connection errors.",
		}),
	}

	reg.MustRegister(h.Ops, h.Duration, h.DialErrors)
	return h
}

func (h *RedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.DialErrors.Inc()
		}
		return conn, err
	}
}

func (h *RedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(cmd.Name(), err, time.Since(start))
		return err
	}
}

func (h *RedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.record("pipeline", err, time.Since(start))
		return err
	}
}

func (h *RedisHook) record(op string, err error, d time.Duration) {
	status := "success"
	// redis.Nil is a miss, TxFailedErr is a lost WATCH race; neither is a fault.
	if err != nil && !errors.Is(err, redis.Nil) && !errors.Is(err, redis.TxFailedErr) {
		status = "error"
	}
	h.Ops.WithLabelValues(op, status).Inc()
	h.Duration.WithLabelValues(op).Observe(d.Seconds())
}
