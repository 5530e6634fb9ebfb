package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty and do nothing, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordTokenValidation(valid bool) {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)  {}
func (n *NoopMetrics) RecordCodeExchange(success bool)  {}

func (n *NoopMetrics) RecordInventoryQuery(success bool, duration time.Duration) {}

func (n *NoopMetrics) RecordBatchRun(result string, duration time.Duration) {}
func (n *NoopMetrics) RecordLocationProcessed(outcome string)               {}
func (n *NoopMetrics) RecordEmailsSent(sent, failed int)                    {}

func (n *NoopMetrics) RecordHTTPRequest(
	method, path string,
	status int,
	duration time.Duration,
) {
}
