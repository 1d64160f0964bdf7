package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the record lifecycle.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	dbQueryDuration    *prometheus.HistogramVec
	operations         *prometheus.CounterVec
	storeConflicts     *prometheus.CounterVec
	semestersCompleted prometheus.Counter
	semesterSubjects   prometheus.Histogram
	advisorJobsTotal   *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Read model cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of record store round-trips",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "record_operations_total",
		Help: "Mutating record operations by outcome",
	}, []string{"op", "outcome"})

	storeConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "record_store_conflicts_total",
		Help: "Optimistic concurrency conflicts detected at save time",
	}, []string{"op"})

	semestersCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "semesters_completed_total",
		Help: "Semesters archived into history",
	})

	semesterSubjects := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "semester_subjects",
		Help:    "Number of subjects graded per completed semester",
		Buckets: []float64{1, 2, 4, 6, 8, 10, 12},
	})

	advisorJobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_feed_jobs_total",
		Help: "Advisor context snapshot jobs by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, dbQueryDuration,
		operations, storeConflicts, semestersCompleted, semesterSubjects, advisorJobsTotal, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLookups:       cacheLookups,
		cacheLatency:       cacheLatency,
		dbQueryDuration:    dbQueryDuration,
		operations:         operations,
		storeConflicts:     storeConflicts,
		semestersCompleted: semestersCompleted,
		semesterSubjects:   semesterSubjects,
		advisorJobsTotal:   advisorJobsTotal,
	}
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a read model cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// ObserveDBQuery records record store timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordOperation counts a mutating operation outcome.
func (m *MetricsService) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// RecordStoreConflict counts a version conflict reported by the store.
func (m *MetricsService) RecordStoreConflict(op string) {
	if m == nil {
		return
	}
	m.storeConflicts.WithLabelValues(op).Inc()
}

// RecordSemesterCompleted tracks an archived semester.
func (m *MetricsService) RecordSemesterCompleted(subjects int) {
	if m == nil {
		return
	}
	m.semestersCompleted.Inc()
	m.semesterSubjects.Observe(float64(subjects))
}

// RecordAdvisorJob counts advisor feed job results.
func (m *MetricsService) RecordAdvisorJob(result string) {
	if m == nil {
		return
	}
	m.advisorJobsTotal.WithLabelValues(result).Inc()
}
