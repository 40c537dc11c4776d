// Package metrics provides Prometheus metrics for the event tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the tracker.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Persistence
	storageSaves       *prometheus.CounterVec
	storageLoads       *prometheus.CounterVec
	storageClears      *prometheus.CounterVec
	storagePayloadSize prometheus.Gauge

	// Seed loading
	seedFetches        *prometheus.CounterVec
	validationFailures prometheus.Counter
	initialLoads       *prometheus.CounterVec

	// Collection and pipeline
	collectionSize  prometheus.Gauge
	statusChanges   *prometheus.CounterVec
	renders         prometheus.Counter
	renderDuration  prometheus.Histogram
	bucketSize      *prometheus.GaugeVec
	persistQueue    prometheus.Gauge
	persistDropped  prometheus.Counter
	persistDeferred prometheus.Counter
	calendarExports prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "tracker",
		subsystem:        "events",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

//nolint:funlen // long function required for comprehensive metrics initialization
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.storageSaves = m.counterVec("storage_saves_total", "Envelope writes by outcome", "outcome")
	m.storageLoads = m.counterVec("storage_loads_total", "Envelope reads by outcome (hit, miss, corrupt)", "outcome")
	m.storageClears = m.counterVec("storage_clears_total", "Namespace clears by outcome", "outcome")
	m.storagePayloadSize = m.gauge("storage_payload_bytes", "Size of the last envelope written")

	m.seedFetches = m.counterVec("seed_fetches_total", "Seed resource fetches by outcome", "outcome")
	m.validationFailures = m.counter("seed_validation_failures_total", "Seed payloads rejected by validation")
	m.initialLoads = m.counterVec("initial_loads_total", "Initial loads by origin (storage, seed, error)", "origin")

	m.collectionSize = m.gauge("collection_size", "Number of events held in memory")
	m.statusChanges = m.counterVec("status_changes_total", "Registration status edits by new status", "status")
	m.renders = m.counter("renders_total", "Filter/sort/categorize pipeline runs")
	m.renderDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_duration_milliseconds",
		Help:      "Pipeline latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.bucketSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bucket_size",
		Help:      "Events in the last rendered bucket",
	}, []string{"bucket"})
	m.persistQueue = m.gauge("persist_queue_size", "Snapshots waiting to be written")
	m.persistDropped = m.counter("persist_dropped_total", "Snapshots dropped because the persister was stopped")
	m.persistDeferred = m.counter("persist_deferred_total", "Snapshots parked because the persist queue was full")
	m.calendarExports = m.counter("calendar_exports_total", "iCalendar exports served")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP responses with status >= 400 by error type",
		"endpoint", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of running goroutines")
}

// Outcome label values shared by the Record* helpers.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeCorrupt = "corrupt"
)

// RecordStorageSave counts an envelope write.
func RecordStorageSave(outcome string) {
	globalManager.storageSaves.WithLabelValues(outcome).Inc()
}

// UpdateStoragePayloadSize sets the size of the last written envelope.
func UpdateStoragePayloadSize(bytes int) {
	globalManager.storagePayloadSize.Set(float64(bytes))
}

// RecordStorageLoad counts an envelope read.
func RecordStorageLoad(outcome string) {
	globalManager.storageLoads.WithLabelValues(outcome).Inc()
}

// RecordStorageClear counts a namespace clear.
func RecordStorageClear(outcome string) {
	globalManager.storageClears.WithLabelValues(outcome).Inc()
}

// RecordSeedFetch counts a seed fetch attempt.
func RecordSeedFetch(outcome string) {
	globalManager.seedFetches.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure counts a rejected seed payload.
func RecordValidationFailure() {
	globalManager.validationFailures.Inc()
}

// RecordInitialLoad counts where the initial collection came from.
func RecordInitialLoad(origin string) {
	globalManager.initialLoads.WithLabelValues(origin).Inc()
}

// UpdateCollectionSize sets the in-memory collection size.
func UpdateCollectionSize(n int) {
	globalManager.collectionSize.Set(float64(n))
}

// RecordStatusChange counts a status edit.
func RecordStatusChange(status string) {
	globalManager.statusChanges.WithLabelValues(status).Inc()
}

// RecordRender records one pipeline run and its bucket sizes.
func RecordRender(durationMs float64, upcoming, past int) {
	globalManager.renders.Inc()
	globalManager.renderDuration.Observe(durationMs)
	globalManager.bucketSize.WithLabelValues("upcoming").Set(float64(upcoming))
	globalManager.bucketSize.WithLabelValues("past").Set(float64(past))
}

// UpdatePersistQueueSize sets the persist queue backlog.
func UpdatePersistQueueSize(n int) {
	globalManager.persistQueue.Set(float64(n))
}

// RecordPersistDropped counts a snapshot offered after the persister stopped.
func RecordPersistDropped() {
	globalManager.persistDropped.Inc()
}

// RecordPersistDeferred counts a snapshot parked behind a full queue.
func RecordPersistDeferred() {
	globalManager.persistDeferred.Inc()
}

// RecordCalendarExport counts an iCalendar export.
func RecordCalendarExport() {
	globalManager.calendarExports.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
