// Package metrics records request-core metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never check for nil:
//
//	o := orchestrator.New(adapter, policy, orchestrator.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder exports attempts, invocation latency, retries, exhausted
// retries and pages under the jenkinsrest namespace. HTTPHandler serves a
// registry in the OpenMetrics format.
package metrics
