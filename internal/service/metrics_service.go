package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "huddle"

// MetricsService owns a private Prometheus registry. Every method is safe on
// a nil receiver so callers can run without instrumentation.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64

	overlaps   *prometheus.CounterVec
	clockSteps *prometheus.CounterVec
	responses  *prometheus.CounterVec
	exportJobs *prometheus.CounterVec
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	m := &MetricsService{registry: registry}
	m.httpDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route", "status"})
	m.httpTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template.",
	}, []string{"method", "route", "status"})

	m.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "overlap_cache",
		Name:      "lookups_total",
		Help:      "Overlap cache lookups by result.",
	}, []string{"result"})
	m.cacheLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "overlap_cache",
		Name:      "operation_seconds",
		Help:      "Overlap cache round trips.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
	}, []string{"op"})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "overlap_cache",
		Name:      "hit_ratio",
		Help:      "Share of overlap lookups served from cache since start.",
	}, m.hitRatio)

	m.overlaps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "overlap_computations_total",
		Help:      "Per-window overlap computations by outcome.",
	}, []string{"result"})
	m.clockSteps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "clock_steps_total",
		Help:      "Bounded 15-minute steps by outcome.",
	}, []string{"result"})
	m.responses = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "availability_responses_total",
		Help:      "Invitee availability changes.",
	}, []string{"action"})
	m.exportJobs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "export_jobs_total",
		Help:      "Availability export jobs by terminal status.",
	}, []string{"status"})

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry, or 503 when metrics are disabled.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
}

// RecordCacheOperation counts one overlap cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(outcome(hit, "hit", "miss")).Inc()
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

func (m *MetricsService) hitRatio() float64 {
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func (m *MetricsService) RecordOverlap(found bool) {
	if m == nil {
		return
	}
	m.overlaps.WithLabelValues(outcome(found, "overlap", "none")).Inc()
}

// RecordOverlaps counts a batch of window computations by outcome.
func (m *MetricsService) RecordOverlaps(found, missing int) {
	if m == nil {
		return
	}
	m.overlaps.WithLabelValues("overlap").Add(float64(max(found, 0)))
	m.overlaps.WithLabelValues("none").Add(float64(max(missing, 0)))
}

func (m *MetricsService) RecordClockStep(moved bool) {
	if m == nil {
		return
	}
	m.clockSteps.WithLabelValues(outcome(moved, "moved", "blocked")).Inc()
}

// RecordResponse counts a submitted or withdrawn availability.
func (m *MetricsService) RecordResponse(action string) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(action).Inc()
}

func (m *MetricsService) RecordExportJob(status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(status).Inc()
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
