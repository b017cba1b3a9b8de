package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wellbeing"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// FoldMetrics tracks the fold-then-persist cycle. A nil *FoldMetrics is a
// valid no-op recorder.
type FoldMetrics struct {
	Folds     *prometheus.CounterVec
	Conflicts *prometheus.CounterVec
	Attempts  prometheus.Histogram
}

// NewFoldMetrics creates and registers fold metrics on the given registry.
func NewFoldMetrics(reg prometheus.Registerer) *FoldMetrics {
	m := &FoldMetrics{
		Folds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fold",
			Name:      "total",
			Help:      "Folds by feature and result.",
		}, []string{"feature", "result"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fold",
			Name:      "conflicts_total",
			Help:      "Compare-and-swap conflicts seen while persisting a rollup.",
		}, []string{"feature"}),
		Attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fold",
			Name:      "attempts",
			Help:      "Read-fold-write attempts per accepted fold.",
			Buckets:   []float64{1, 2, 3, 5, 8},
		}),
	}

	reg.MustRegister(m.Folds, m.Conflicts, m.Attempts)
	return m
}

func (m *FoldMetrics) Observe(feature, result string, attempts int) {
	if m == nil {
		return
	}
	m.Folds.WithLabelValues(feature, result).Inc()
	if result == "ok" {
		m.Attempts.Observe(float64(attempts))
	}
}

func (m *FoldMetrics) Conflict(feature string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(feature).Inc()
}

// RPCMetrics tracks unary gRPC calls.
type RPCMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewRPCMetrics creates and registers RPC metrics on the given registry.
func NewRPCMetrics(reg prometheus.Registerer) *RPCMetrics {
	m := &RPCMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Unary RPCs by method and status code.",
		}, []string{"method", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Unary RPC latency in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method"}),
	}

	reg.MustRegister(m.Requests, m.Duration)
	return m
}

func (m *RPCMetrics) Observe(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, code).Inc()
	m.Duration.WithLabelValues(method).Observe(d.Seconds())
}

// CacheMetrics counts read-through cache lookups.
type CacheMetrics struct {
	Lookups *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-through cache lookups by result (hit/miss/error).",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Lookups)
	return m
}

func (m *CacheMetrics) Lookup(result string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(result).Inc()
}
