package metrics

import "time"

// OutcomeSuccess labels attempts and invocations that succeeded. Failures are
// labelled with their error kind.
const OutcomeSuccess = "success"

// Recorder defines observability hooks for the request core. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for
// nil receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveAttempt(operation, outcome string, d time.Duration)
	ObserveInvocation(operation, outcome string, attempts int, d time.Duration)
	IncRetry(operation, kind string)
	IncRetryExhausted(operation string)
	IncPage(operation string, items int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveAttempt(string, string, time.Duration)         {}
func (NoopRecorder) ObserveInvocation(string, string, int, time.Duration) {}
func (NoopRecorder) IncRetry(string, string)                              {}
func (NoopRecorder) IncRetryExhausted(string)                             {}
func (NoopRecorder) IncPage(string, int)                                  {}
