package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "jenkinsrest"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	attemptDuration    *prom.HistogramVec
	attempts           *prom.CounterVec
	invocationDuration *prom.HistogramVec
	invocationAttempts *prom.HistogramVec
	retries            *prom.CounterVec
	retriesExhausted   *prom.CounterVec
	pages              *prom.CounterVec
	pageItems          *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		attemptDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual HTTP attempts",
			Buckets:   prom.DefBuckets,
		}, []string{"operation", "outcome"}),
		attempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "HTTP attempts by operation and outcome",
		}, []string{"operation", "outcome"}),
		invocationDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of whole invocations including backoff",
			Buckets:   prom.DefBuckets,
		}, []string{"operation", "outcome"}),
		invocationAttempts: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_attempts",
			Help:      "Attempts needed per invocation",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		}, []string{"operation"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries scheduled after transient failures",
		}, []string{"operation", "kind"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retry_exhausted_total",
			Help:      "Invocations that failed with a retryable error after the retry budget ran out",
		}, []string{"operation"}),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages fetched by paginated operations",
		}, []string{"operation"}),
		pageItems: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_items_total",
			Help:      "Items yielded by paginated operations after de-duplication",
		}, []string{"operation"}),
	}
	reg.MustRegister(pr.attemptDuration, pr.attempts, pr.invocationDuration, pr.invocationAttempts,
		pr.retries, pr.retriesExhausted, pr.pages, pr.pageItems)
	return pr
}

func (p *PrometheusRecorder) ObserveAttempt(operation, outcome string, d time.Duration) {
	if p == nil || p.attempts == nil {
		return
	}
	p.attempts.WithLabelValues(operation, outcome).Inc()
	p.attemptDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveInvocation(operation, outcome string, attempts int, d time.Duration) {
	if p == nil || p.invocationDuration == nil {
		return
	}
	p.invocationDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
	p.invocationAttempts.WithLabelValues(operation).Observe(float64(attempts))
}

func (p *PrometheusRecorder) IncRetry(operation, kind string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(operation, kind).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(operation string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) IncPage(operation string, items int) {
	if p == nil || p.pages == nil {
		return
	}
	p.pages.WithLabelValues(operation).Inc()
	p.pageItems.WithLabelValues(operation).Add(float64(items))
}
