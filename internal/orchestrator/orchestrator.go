// Package orchestrator runs operations to completion: it executes attempts,
// classifies outcomes, applies the retry policy and drives pagination.
package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/jenkinsrest/internal/classify"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/logfields"
	"git.home.luguber.info/inful/jenkinsrest/internal/metrics"
	"git.home.luguber.info/inful/jenkinsrest/internal/observability"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/retry"
	"git.home.luguber.info/inful/jenkinsrest/internal/transport"
)

// Executor performs one HTTP attempt. *transport.Adapter implements it.
type Executor interface {
	Execute(ctx context.Context, d operation.Descriptor, body any) (*transport.RawResponse, error)
}

// Response is a successful outcome.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	Attempts  int
	RequestID string
}

// FailureHook observes every failed attempt.
type FailureHook func(ctx context.Context, d operation.Descriptor, err *errors.ClassifiedError)

// Orchestrator is safe for concurrent use. Each invocation runs on the
// caller's goroutine.
type Orchestrator struct {
	exec          Executor
	policy        retry.Policy
	totalDeadline time.Duration
	pageSize      int
	logger        *slog.Logger
	recorder      metrics.Recorder
	sleep         func(ctx context.Context, d time.Duration) error
	newID         func() string
	onFailure     FailureHook
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTotalDeadline bounds each invocation, backoff included. Zero means
// no bound beyond the caller's context.
func WithTotalDeadline(d time.Duration) Option {
	return func(o *Orchestrator) { o.totalDeadline = d }
}

// WithPageSize sets the default page size for FetchAll.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithSleeper replaces the backoff sleep.
func WithSleeper(f func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.sleep = f
		}
	}
}

// WithRequestIDs replaces the request ID generator.
func WithRequestIDs(f func() string) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.newID = f
		}
	}
}

// WithFailureHook registers a hook run after every failed attempt.
func WithFailureHook(h FailureHook) Option { return func(o *Orchestrator) { o.onFailure = h } }

// New creates an Orchestrator executing attempts through exec.
func New(exec Executor, policy retry.Policy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		exec:     exec,
		policy:   policy,
		pageSize: 100,
		recorder: metrics.NoopRecorder{},
		sleep:    retry.Sleep,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PageSize returns the default page size.
func (o *Orchestrator) PageSize() int { return o.pageSize }

// withRequestID tags ctx with a fresh request ID unless one is present.
func (o *Orchestrator) withRequestID(ctx context.Context) context.Context {
	if observability.RequestID(ctx) != "" {
		return ctx
	}
	return observability.WithRequestID(ctx, o.newID())
}

// Invoke runs d until it succeeds or fails permanently. Failures are
// *errors.ClassifiedError values carrying the attempt count. Paginated
// descriptors are refused; walk them with FetchAll.
func (o *Orchestrator) Invoke(ctx context.Context, d operation.Descriptor, body any) (*Response, error) {
	if d.IsPaginated() {
		return nil, errors.InvalidRequestError("paginated operation must be fetched with FetchAll").
			WithContext("operation", d.Name()).
			Build()
	}
	ctx, cancel := o.withDeadline(ctx)
	defer cancel()
	return o.run(ctx, d, body)
}

// withDeadline bounds ctx by the total deadline, if one is configured.
func (o *Orchestrator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.totalDeadline <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.totalDeadline)
}

// run executes the attempt loop under ctx, whose deadline bounds every
// attempt and backoff.
func (o *Orchestrator) run(ctx context.Context, d operation.Descriptor, body any) (*Response, error) {
	start := time.Now()
	ctx = o.withRequestID(ctx)
	path, err := d.Path()
	if err != nil {
		path = d.Template()
	}
	ctx = observability.WithOperation(ctx, d.Name(), d.Method(), path)

	var deadline time.Time
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}

	var prevDelay time.Duration
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, o.finish(ctx, d, start, contextFailure(err).WithAttempts(attempt-1))
		}

		attemptStart := time.Now()
		raw, err := o.exec.Execute(ctx, d, body)
		ce := classify.ClassifyFor(d, raw, err)
		elapsed := time.Since(attemptStart)
		rec := retry.Attempt{Number: attempt, Elapsed: elapsed, Err: ce}

		if ce == nil {
			o.recorder.ObserveAttempt(d.Name(), metrics.OutcomeSuccess, elapsed)
			o.log(ctx, slog.LevelDebug, "Attempt succeeded",
				logfields.Attempt(rec.Number), logfields.Status(raw.Status), logfields.DurationMS(rec.Elapsed))
			o.recorder.ObserveInvocation(d.Name(), metrics.OutcomeSuccess, attempt, time.Since(start))
			return &Response{
				Status:    raw.Status,
				Header:    raw.Header,
				Body:      raw.Body,
				Attempts:  attempt,
				RequestID: observability.RequestID(ctx),
			}, nil
		}

		o.recorder.ObserveAttempt(d.Name(), string(ce.Kind()), elapsed)
		if o.onFailure != nil {
			o.onFailure(ctx, d, ce)
		}

		decision := o.policy.ShouldRetry(ce, attempt, prevDelay, d, deadline)
		o.logAttempt(ctx, rec, decision)
		if !decision.Retry {
			if decision.Reason == retry.ReasonExhausted {
				o.recorder.IncRetryExhausted(d.Name())
			}
			return nil, o.finish(ctx, d, start, ce.WithAttempts(attempt))
		}

		o.recorder.IncRetry(d.Name(), string(ce.Kind()))
		if err := o.sleep(ctx, decision.Delay); err != nil {
			return nil, o.finish(ctx, d, start, contextFailure(err).WithAttempts(attempt))
		}
		prevDelay = decision.Delay
	}
}

func (o *Orchestrator) finish(ctx context.Context, d operation.Descriptor, start time.Time, ce *errors.ClassifiedError) error {
	o.recorder.ObserveInvocation(d.Name(), string(ce.Kind()), ce.Attempts(), time.Since(start))
	attrs := []slog.Attr{logfields.Kind(string(ce.Kind())), logfields.Attempt(ce.Attempts()), logfields.Error(ce)}
	if ce.Status() > 0 {
		attrs = append(attrs, logfields.Status(ce.Status()))
	}
	o.log(ctx, slog.LevelDebug, "Invocation failed", attrs...)
	return ce
}

func (o *Orchestrator) logAttempt(ctx context.Context, a retry.Attempt, decision retry.Decision) {
	attrs := []slog.Attr{
		logfields.Attempt(a.Number),
		logfields.Kind(string(a.Err.Kind())),
		logfields.DurationMS(a.Elapsed),
		logfields.Reason(decision.Reason),
	}
	if a.Err.Status() > 0 {
		attrs = append(attrs, logfields.Status(a.Err.Status()))
	}
	if decision.Retry {
		attrs = append(attrs, logfields.DelayMS(decision.Delay))
		o.log(ctx, slog.LevelWarn, "Attempt failed, retrying", attrs...)
		return
	}
	o.log(ctx, slog.LevelDebug, "Attempt failed", attrs...)
}

func (o *Orchestrator) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if o.logger == nil {
		observability.LogAttrs(ctx, nil, level, msg, attrs...)
		return
	}
	observability.LogAttrs(ctx, o.logger, level, msg, attrs...)
}

// contextFailure converts a context error into Canceled or, for an expired
// deadline, Timeout.
func contextFailure(err error) *errors.ClassifiedError {
	return classify.Classify(nil, err)
}
