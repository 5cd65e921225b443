package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
)

// Reasons reported on a Decision.
const (
	ReasonRetryable     = "retryable"
	ReasonUnclassified  = "unclassified"
	ReasonNotRetryable  = "not_retryable"
	ReasonExhausted     = "exhausted"
	ReasonNotIdempotent = "not_idempotent"
	ReasonDeadline      = "deadline"
)

// Decision is the outcome of ShouldRetry.
type Decision struct {
	Retry  bool
	Delay  time.Duration
	Reason string
}

// Attempt records one try inside an invocation.
type Attempt struct {
	Number  int
	Elapsed time.Duration
	Err     *errors.ClassifiedError // nil on success
}

// ShouldRetry decides whether a failed attempt is retried. attempt counts
// the attempts made so far, starting at 1. prev is the delay slept before
// this attempt; the returned delay is never shorter. A zero deadline means
// none.
//
// Non-idempotent operations are retried only after an Unreachable failure
// whose request was never fully written, since the server cannot have
// acted on it.
func (p Policy) ShouldRetry(err error, attempt int, prev time.Duration, d operation.Descriptor, deadline time.Time) Decision {
	ce, ok := errors.AsClassified(err)
	if !ok {
		return Decision{Reason: ReasonUnclassified}
	}
	if !ce.Retryable() {
		return Decision{Reason: ReasonNotRetryable}
	}
	if attempt > p.MaxRetries {
		return Decision{Reason: ReasonExhausted}
	}
	if !d.IsIdempotent() && (ce.Kind() != errors.KindUnreachable || ce.RequestSent()) {
		return Decision{Reason: ReasonNotIdempotent}
	}

	delay := p.JitteredDelay(attempt)
	if hint, ok := ce.RetryAfter(); ok && hint > delay {
		delay = hint
	}
	delay = capBackoff(max(delay, prev), p.Max)

	if !deadline.IsZero() && p.clock().Add(delay).After(deadline) {
		return Decision{Delay: delay, Reason: ReasonDeadline}
	}
	return Decision{Retry: true, Delay: delay, Reason: ReasonRetryable}
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
