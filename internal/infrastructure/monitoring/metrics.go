package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	RateLimitDecisions *prometheus.CounterVec
	UsageChecks        *prometheus.CounterVec
	UsageIncrements    *prometheus.CounterVec
	StoreErrors        *prometheus.CounterVec
	GalleryCache       *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	KeysCleared        *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genguard_rate_limit_decisions_total",
				Help: "Sliding-window decisions by outcome.",
			},
			[]string{"result"},
		),
		UsageChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genguard_usage_checks_total",
				Help: "Daily quota checks by outcome.",
			},
			[]string{"result"},
		),
		UsageIncrements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genguard_usage_increments_total",
				Help: "Usage counter increments by outcome.",
			},
			[]string{"result"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genguard_store_errors_total",
				Help: "Key-value store failures by operation.",
			},
			[]string{"operation"},
		),
		GalleryCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genguard_gallery_cache_total",
				Help: "Gallery cache lookups by tier and outcome.",
			},
			[]string{"tier", "result"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genguard_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "genguard_http_requests_in_flight",
				Help: "Requests currently being served.",
			},
		),
		KeysCleared: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genguard_keys_cleared_total",
				Help: "Keys removed by maintenance operations.",
			},
			[]string{"prefix"},
		),
	}
}

// Every Record method is a no-op on a nil *Metrics.

// RecordRateLimit records a sliding-window decision. result is one of
// allowed, denied or error.
func (m *Metrics) RecordRateLimit(result string) {
	if m == nil {
		return
	}
	m.RateLimitDecisions.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUsageCheck(result string) {
	if m == nil {
		return
	}
	m.UsageChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUsageIncrement(success bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !success {
		result = "error"
	}
	m.UsageIncrements.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordStoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordCacheAccess(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.GalleryCache.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) RecordKeysCleared(prefix string, n int64) {
	if m == nil {
		return
	}
	m.KeysCleared.WithLabelValues(prefix).Add(float64(n))
}

func (m *Metrics) ObserveRequest(path, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(path, method, status).Observe(d.Seconds())
}
