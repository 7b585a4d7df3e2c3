// Package metrics provides Prometheus metrics for the sportid service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every metric family exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Extraction
	extractionsTotal  prometheus.Counter
	extractionFields  *prometheus.CounterVec
	extractionLatency prometheus.Histogram
	dateFallbacks     prometheus.Counter

	// Submissions and rewards
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsProcessed prometheus.Counter
	xpAwarded            *prometheus.CounterVec
	verifyLatency        prometheus.Histogram
	leaderboardAthletes  prometheus.Gauge
	feedPosts            prometheus.Gauge

	// Wallet
	walletOperations *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its metrics on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sportid",
		subsystem:        "rewards",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval reports how often gauges should be refreshed by callers.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording helpers update this manager.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every family
	m.extractionsTotal = m.counter("extractions_total", "Total number of recognized texts run through the extractor")
	m.extractionFields = m.counterVec("extraction_fields_total", "Fields populated by the extractor", "field")
	m.extractionLatency = m.histogram("extraction_latency_milliseconds", "Extractor latency in milliseconds")
	m.dateFallbacks = m.counter("extraction_date_fallbacks_total", "Extractions whose date was inferred from the clock")

	m.submissionsAccepted = m.counter("submissions_accepted_total", "Confirmed activities accepted for processing")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Confirmed activities rejected as duplicates")
	m.submissionsProcessed = m.counter("submissions_processed_total", "Confirmed activities verified and rewarded")
	m.xpAwarded = m.counterVec("xp_awarded_total", "Experience points awarded by sport", "sport")
	m.verifyLatency = m.histogram("verify_latency_milliseconds", "Activity verification latency in milliseconds")
	m.leaderboardAthletes = m.gauge("leaderboard_athletes", "Athletes present on the XP leaderboard")
	m.feedPosts = m.gauge("feed_posts", "Posts currently in the social feed")

	m.walletOperations = m.counterVec("wallet_operations_total", "Wallet operations by kind and outcome", "operation", "outcome")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = m.gauge("queue_size", "Current number of queued submissions")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued submissions")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Submissions rejected by the queue")

	m.workerCount = m.gauge("worker_count", "Number of submission workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-submission worker latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Submissions that failed in a worker")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Extraction.

// RecordExtraction records one extractor run and the fields it populated.
func RecordExtraction(latencyMs float64, fields []string, dateInferred bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.extractionsTotal.Inc()
	globalManager.extractionLatency.Observe(latencyMs)
	for _, f := range fields {
		globalManager.extractionFields.WithLabelValues(f).Inc()
	}
	if dateInferred {
		globalManager.dateFallbacks.Inc()
	}
}

// Submissions and rewards.

// RecordSubmissionAccepted increments accepted submissions.
func RecordSubmissionAccepted() { globalManager.submissionsAccepted.Inc() }

// RecordSubmissionDuplicate increments duplicate submissions.
func RecordSubmissionDuplicate() { globalManager.submissionsDuplicate.Inc() }

// RecordSubmissionProcessed increments processed submissions.
func RecordSubmissionProcessed() { globalManager.submissionsProcessed.Inc() }

// RecordXPAwarded adds awarded XP for a sport.
func RecordXPAwarded(sport string, xp int) {
	globalManager.xpAwarded.WithLabelValues(sport).Add(float64(xp))
}

// RecordVerifyLatency observes verification latency.
func RecordVerifyLatency(latencyMs float64) { globalManager.verifyLatency.Observe(latencyMs) }

// UpdateLeaderboardAthletes sets the leaderboard size.
func UpdateLeaderboardAthletes(count int) { globalManager.leaderboardAthletes.Set(float64(count)) }

// UpdateFeedPosts sets the feed size.
func UpdateFeedPosts(count int) { globalManager.feedPosts.Set(float64(count)) }

// RecordWalletOperation counts a wallet call by outcome ("ok" or "rejected").
func RecordWalletOperation(operation, outcome string) {
	globalManager.walletOperations.WithLabelValues(operation, outcome).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Queue.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueueError increments rejected enqueues.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// Workers.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency observes per-submission worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments worker failures.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
