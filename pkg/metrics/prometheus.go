// Package metrics provides Prometheus metrics for the opsboard dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Label values shared by callers.
const (
	DatasetTransactions = "transactions"
	DatasetTickets      = "tickets"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Manager manages all Prometheus metrics for opsboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dataset loading
	datasetLoads        *prometheus.CounterVec
	datasetLoadDuration *prometheus.HistogramVec
	datasetRows         *prometheus.GaugeVec
	duplicateIDs        prometheus.Gauge

	// Join diagnostics
	unmatchedTickets   prometheus.Gauge
	ambiguousCustomers prometheus.Gauge

	// Dataset cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations *prometheus.CounterVec

	// Rendering
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	filteredRows   *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init rebuilds the global manager with opts on a fresh registry. Call it
// once at startup, before metrics are recorded or served.
func Init(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "opsboard",
		subsystem:        "dashboard",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.datasetLoads = auto.NewCounterVec(
		m.counterOpts("dataset_loads_total", "Dataset loads from disk by dataset and outcome"),
		[]string{"dataset", "outcome"},
	)
	m.datasetLoadDuration = auto.NewHistogramVec(
		m.histogramOpts("dataset_load_duration_milliseconds", "Time spent reading and parsing a dataset"),
		[]string{"dataset"},
	)
	m.datasetRows = auto.NewGaugeVec(
		m.gaugeOpts("dataset_rows", "Rows in the currently loaded dataset"),
		[]string{"dataset"},
	)
	m.duplicateIDs = auto.NewGauge(m.gaugeOpts(
		"duplicate_transaction_ids", "Transaction IDs that appear more than once in the loaded transactions"))

	m.unmatchedTickets = auto.NewGauge(m.gaugeOpts(
		"unmatched_tickets", "Tickets whose customer has no transaction (null category after join)"))
	m.ambiguousCustomers = auto.NewGauge(m.gaugeOpts(
		"ambiguous_customers", "Customers mapped to more than one product category"))

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Renders served from the cached datasets"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Renders that had to (re)load datasets"))
	m.cacheInvalidations = auto.NewCounterVec(
		m.counterOpts("cache_invalidations_total", "Dataset cache invalidations by reason"),
		[]string{"reason"},
	)

	m.renders = auto.NewCounterVec(
		m.counterOpts("renders_total", "Dashboard renders by outcome"),
		[]string{"outcome"},
	)
	m.renderDuration = auto.NewHistogram(m.histogramOpts(
		"render_duration_milliseconds", "Filter and aggregate time for one render"))
	m.filteredRows = auto.NewGaugeVec(
		m.gaugeOpts("filtered_rows", "Rows in the most recent filtered view"),
		[]string{"dataset"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordDatasetLoad records one dataset load attempt.
func RecordDatasetLoad(dataset, outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.datasetLoads.WithLabelValues(dataset, outcome).Inc()
	globalManager.datasetLoadDuration.WithLabelValues(dataset).Observe(durationMs)
}

// UpdateDatasetRows sets the row count of a loaded dataset.
func UpdateDatasetRows(dataset string, rows int) {
	if !globalManager.enabled {
		return
	}
	globalManager.datasetRows.WithLabelValues(dataset).Set(float64(rows))
}

// UpdateDuplicateTransactionIDs sets the duplicate transaction id gauge.
func UpdateDuplicateTransactionIDs(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.duplicateIDs.Set(float64(count))
}

// UpdateJoinDiagnostics publishes join quality gauges.
func UpdateJoinDiagnostics(unmatched, ambiguous int) {
	if !globalManager.enabled {
		return
	}
	globalManager.unmatchedTickets.Set(float64(unmatched))
	globalManager.ambiguousCustomers.Set(float64(ambiguous))
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidation counts an invalidation; reason is e.g. "watch", "manual", "stale".
func RecordCacheInvalidation(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheInvalidations.WithLabelValues(reason).Inc()
}

// RecordRender records one render and its latency.
func RecordRender(outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.renders.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		globalManager.renderDuration.Observe(durationMs)
	}
}

// UpdateFilteredRows sets the size of the latest filtered view of a dataset.
func UpdateFilteredRows(dataset string, rows int) {
	if !globalManager.enabled {
		return
	}
	globalManager.filteredRows.WithLabelValues(dataset).Set(float64(rows))
}

// RecordHTTPRequest records the HTTP request count.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval reports how often periodic gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
