// Package metrics provides Prometheus metrics for the ICP assignment service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the ICP service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	enabled          atomic.Bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Core Business Metrics
	assignments    *prometheus.CounterVec
	segmentScores  *prometheus.HistogramVec
	scoringLatency prometheus.Histogram
	scoringErrors  *prometheus.CounterVec
	profileSize    prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "icp",
		subsystem:        "assignment",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     []float64{-8, -4, -2, -1, -0.5, 0, 0.5, 1, 2, 4, 8},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.assignments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "assignments_total",
		Help:        "Total number of leads assigned, by winning segment",
		ConstLabels: labels,
	}, []string{"segment"})

	m.segmentScores = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "segment_score",
		Help:        "Distribution of computed scores per segment",
		Buckets:     m.scoreBuckets,
		ConstLabels: labels,
	}, []string{"segment"})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scoring_latency_milliseconds",
		Help:        "Histogram of scoring latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.scoringErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scoring_errors_total",
		Help:        "Total number of scoring errors by kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.profileSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "profile_segments",
		Help:        "Number of segments in the loaded profile",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "error_latency_milliseconds",
			Help:        "Latency of operations that resulted in errors",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// SetEnabled turns recording on or off. Registered collectors stay in place.
func (m *Manager) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

// Enabled reports whether recording is on.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RecordAssignment counts a lead assigned to segment.
func (m *Manager) RecordAssignment(segment string) {
	if m.Enabled() {
		m.assignments.WithLabelValues(segment).Inc()
	}
}

// ObserveSegmentScore records one segment's score for a lead.
func (m *Manager) ObserveSegmentScore(segment string, score float64) {
	if m.Enabled() {
		m.segmentScores.WithLabelValues(segment).Observe(score)
	}
}

// RecordScoringLatency records scoring latency in milliseconds.
func (m *Manager) RecordScoringLatency(latencyMs float64) {
	if m.Enabled() {
		m.scoringLatency.Observe(latencyMs)
	}
}

// RecordScoringError counts a scoring failure of the given kind.
func (m *Manager) RecordScoringError(kind string) {
	if m.Enabled() {
		m.scoringErrors.WithLabelValues(kind).Inc()
	}
}

// UpdateProfileSegments sets the number of configured segments.
func (m *Manager) UpdateProfileSegments(count int) {
	if m.Enabled() {
		m.profileSize.Set(float64(count))
	}
}

// RecordHTTPRequest records an HTTP request with its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if m.Enabled() {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordHTTPError records an HTTP error with its type, severity and latency.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string, durationMs float64) {
	if m.Enabled() {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
		m.errorLatency.WithLabelValues("http", errorType).Observe(durationMs)
	}
}

// UpdateSystem sets memory and goroutine gauges and records the average GC pause.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int, avgGCPauseMs float64) {
	if !m.Enabled() {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if avgGCPauseMs > 0 {
		m.systemGCPauseTime.Observe(avgGCPauseMs)
	}
}

// Package-level helpers operating on the global manager.

// SetEnabled turns global recording on or off.
func SetEnabled(enabled bool) { globalManager.SetEnabled(enabled) }

// RecordAssignment counts a lead assigned to segment.
func RecordAssignment(segment string) { globalManager.RecordAssignment(segment) }

// ObserveSegmentScore records one segment's score for a lead.
func ObserveSegmentScore(segment string, score float64) {
	globalManager.ObserveSegmentScore(segment, score)
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) { globalManager.RecordScoringLatency(latencyMs) }

// RecordScoringError counts a scoring failure of the given kind.
func RecordScoringError(kind string) { globalManager.RecordScoringError(kind) }

// UpdateProfileSegments sets the number of configured segments.
func UpdateProfileSegments(count int) { globalManager.UpdateProfileSegments(count) }

// RecordHTTPRequest records an HTTP request with its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an HTTP error with its type, severity and latency.
func RecordHTTPError(endpoint, method, errorType, severity string, durationMs float64) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity, durationMs)
}

// UpdateSystem sets the system gauges on the global manager.
func UpdateSystem(memoryBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(memoryBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
