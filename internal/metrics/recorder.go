package metrics

import "time"

// Recorder is the metrics recording contract. Production uses the
// Prometheus-backed Metrics; disabled deployments use NoopMetrics.
type Recorder interface {
	// Token lifecycle
	RecordTokenValidation(valid bool)
	RecordTokenRefresh(success bool)
	RecordCodeExchange(success bool)

	// Inventory queries
	RecordInventoryQuery(success bool, duration time.Duration)

	// Batch notification runs
	RecordBatchRun(result string, duration time.Duration)
	RecordLocationProcessed(outcome string)
	RecordEmailsSent(sent, failed int)

	// HTTP surface
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}
