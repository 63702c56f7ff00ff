package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the admin dashboard.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	ndaSigned       prometheus.Counter
	ndaPreviews     prometheus.Counter
	twoFactorFailed prometheus.Counter
	corrections     prometheus.Counter
	paymentsPaid    prometheus.Counter

	previewCount func() int

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	signedCount          uint64
	correctionCount      uint64
}

// NewMetricsService registers core Prometheus collectors. previewCount may
// be nil until the preview cache exists; use SetPreviewCount to wire it.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{registry: registry}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})
	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})
	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	m.ndaSigned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nda_signed_total",
		Help: "Total agreements signed",
	})
	m.ndaPreviews = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nda_previews_total",
		Help: "Total agreement previews generated",
	})
	m.twoFactorFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "two_factor_failures_total",
		Help: "Total failed verification code attempts",
	})
	m.corrections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "corrections_submitted_total",
		Help: "Total report corrections submitted",
	})
	m.paymentsPaid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_paid_total",
		Help: "Total payments marked as paid",
	})

	previews := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "nda_previews_active",
		Help: "Signing sessions currently cached",
	}, func() float64 {
		if m.previewCount == nil {
			return 0
		}
		return float64(m.previewCount())
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheHitRatio, m.cacheHits,
		m.cacheMisses, m.ndaSigned, m.ndaPreviews, m.twoFactorFailed, m.corrections,
		m.paymentsPaid, previews, goroutines)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// SetPreviewCount wires the live signing-session gauge.
func (m *MetricsService) SetPreviewCount(fn func() int) {
	if m == nil {
		return
	}
	m.previewCount = fn
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordNdaPreview counts a generated preview.
func (m *MetricsService) RecordNdaPreview() {
	if m == nil {
		return
	}
	m.ndaPreviews.Inc()
}

// RecordNdaSigned counts a finalized agreement.
func (m *MetricsService) RecordNdaSigned() {
	if m == nil {
		return
	}
	m.ndaSigned.Inc()
	atomic.AddUint64(&m.signedCount, 1)
}

// RecordTwoFactorFailure counts a rejected verification code.
func (m *MetricsService) RecordTwoFactorFailure() {
	if m == nil {
		return
	}
	m.twoFactorFailed.Inc()
}

// RecordCorrection counts a submitted correction.
func (m *MetricsService) RecordCorrection() {
	if m == nil {
		return
	}
	m.corrections.Inc()
	atomic.AddUint64(&m.correctionCount, 1)
}

// RecordPaymentPaid counts a settled payment.
func (m *MetricsService) RecordPaymentPaid() {
	if m == nil {
		return
	}
	m.paymentsPaid.Inc()
}

// Snapshot returns aggregated metrics for the admin overview endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	previews := 0
	if m.previewCount != nil {
		previews = m.previewCount()
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ActivePreviews:           previews,
		AgreementsSigned:         atomic.LoadUint64(&m.signedCount),
		CorrectionsSubmitted:     atomic.LoadUint64(&m.correctionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
