package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch run result label values
const (
	RunResultSuccess = "success"
	RunResultPartial = "partial"
	RunResultAborted = "aborted"
)

// Per-location outcome label values
const (
	LocationOutcomeNotified = "notified"
	LocationOutcomeNoEmails = "no_emails"
	LocationOutcomeNoStock  = "no_stock_issue"
	LocationOutcomeError    = "error"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Token metrics
	TokenValidationTotal *prometheus.CounterVec
	TokenRefreshTotal    *prometheus.CounterVec
	CodeExchangeTotal    *prometheus.CounterVec

	// Inventory metrics
	InventoryQueryTotal    *prometheus.CounterVec
	InventoryQueryDuration prometheus.Histogram

	// Batch run metrics
	BatchRunsTotal          *prometheus.CounterVec
	BatchRunDuration        prometheus.Histogram
	LocationsProcessedTotal *prometheus.CounterVec
	EmailsSentTotal         *prometheus.CounterVec

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// If enabled=true, returns Prometheus-based Metrics.
// If enabled=false, returns NoopMetrics (zero overhead).
// Uses sync.Once to ensure Prometheus metrics are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_token_validation_total",
				Help: "Total number of access token validations",
			},
			[]string{"result"}, // valid, invalid
		),
		TokenRefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_token_refresh_total",
				Help: "Total number of refresh token exchanges",
			},
			[]string{"result"}, // success, failure
		),
		CodeExchangeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_code_exchange_total",
				Help: "Total number of authorization code exchanges",
			},
			[]string{"result"},
		),
		InventoryQueryTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_inventory_query_total",
				Help: "Total number of inventory summary queries",
			},
			[]string{"result"},
		),
		InventoryQueryDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockmonitor_inventory_query_duration_seconds",
				Help:    "Duration of inventory summary queries",
				Buckets: prometheus.DefBuckets,
			},
		),
		BatchRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_batch_runs_total",
				Help: "Total number of batch notification runs",
			},
			[]string{"result"}, // success, partial, aborted
		),
		BatchRunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockmonitor_batch_run_duration_seconds",
				Help:    "Duration of batch notification runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		LocationsProcessedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_locations_processed_total",
				Help: "Total number of locations processed in batch runs",
			},
			[]string{"outcome"}, // notified, no_emails, no_stock_issue, error
		),
		EmailsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_emails_sent_total",
				Help: "Total number of notification email deliveries",
			},
			[]string{"result"}, // success, failure
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmonitor_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockmonitor_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func boolResult(ok bool, trueLabel, falseLabel string) string {
	if ok {
		return trueLabel
	}
	return falseLabel
}

func (m *Metrics) RecordTokenValidation(valid bool) {
	m.TokenValidationTotal.WithLabelValues(boolResult(valid, "valid", "invalid")).Inc()
}

func (m *Metrics) RecordTokenRefresh(success bool) {
	m.TokenRefreshTotal.WithLabelValues(boolResult(success, "success", "failure")).Inc()
}

func (m *Metrics) RecordCodeExchange(success bool) {
	m.CodeExchangeTotal.WithLabelValues(boolResult(success, "success", "failure")).Inc()
}

func (m *Metrics) RecordInventoryQuery(success bool, duration time.Duration) {
	m.InventoryQueryTotal.WithLabelValues(boolResult(success, "success", "failure")).Inc()
	m.InventoryQueryDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordBatchRun(result string, duration time.Duration) {
	m.BatchRunsTotal.WithLabelValues(result).Inc()
	m.BatchRunDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordLocationProcessed(outcome string) {
	m.LocationsProcessedTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordEmailsSent(sent, failed int) {
	if sent > 0 {
		m.EmailsSentTotal.WithLabelValues("success").Add(float64(sent))
	}
	if failed > 0 {
		m.EmailsSentTotal.WithLabelValues("failure").Add(float64(failed))
	}
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
