package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ClassifiedError is the immutable result of interpreting a raw HTTP or
// transport outcome. Derived values are produced with the With* methods.
type ClassifiedError struct {
	kind        ErrorKind
	status      int
	retryable   bool
	attempts    int
	requestSent bool
	retryAfter  time.Duration
	message     string
	cause       error
	context     ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.kind))
	if e.status > 0 {
		fmt.Fprintf(&b, ":%d", e.status)
	}
	b.WriteString("] ")
	b.WriteString(e.message)
	if e.attempts > 0 {
		fmt.Fprintf(&b, " (attempts=%d)", e.attempts)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Kind returns the error kind.
func (e *ClassifiedError) Kind() ErrorKind {
	return e.kind
}

// Status returns the HTTP status code, or 0 when no response was received.
func (e *ClassifiedError) Status() int {
	return e.status
}

// Retryable reports whether the failure is transient.
func (e *ClassifiedError) Retryable() bool {
	return e.retryable
}

// Attempts returns the number of attempts made before this error surfaced.
func (e *ClassifiedError) Attempts() int {
	return e.attempts
}

// RequestSent reports whether the request was fully written before failing.
// Responses always imply a sent request.
func (e *ClassifiedError) RequestSent() bool {
	return e.requestSent
}

// RetryAfter returns the server's Retry-After hint, if any.
func (e *ClassifiedError) RetryAfter() (time.Duration, bool) {
	return e.retryAfter, e.retryAfter > 0
}

// Message returns the error message.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Cause returns the underlying error.
func (e *ClassifiedError) Cause() error {
	return e.cause
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

func (e *ClassifiedError) copy() *ClassifiedError {
	c := *e
	c.context = e.context.clone()
	return &c
}

// WithAttempts returns a copy carrying the given attempt count.
func (e *ClassifiedError) WithAttempts(n int) *ClassifiedError {
	c := e.copy()
	c.attempts = n
	return c
}

// WithContext adds context to the error and returns a new error.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	c := e.copy()
	c.context = c.context.Set(key, value)
	return c
}

// Is matches another ClassifiedError of the same kind, so callers can write
// errors.Is(err, errors.NotFound).
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		if other.message == "" {
			return e.kind == other.kind
		}
		return e.kind == other.kind && e.message == other.message
	}
	return false
}

// IsKind checks if the error has a specific kind.
func (e *ClassifiedError) IsKind(kind ErrorKind) bool {
	return e.kind == kind
}

// Sentinels for errors.Is comparisons by kind.
var (
	Unauthorized   = &ClassifiedError{kind: KindUnauthorized}
	NotFound       = &ClassifiedError{kind: KindNotFound}
	InvalidRequest = &ClassifiedError{kind: KindInvalidRequest}
	RateLimited    = &ClassifiedError{kind: KindRateLimited}
	Timeout        = &ClassifiedError{kind: KindTimeout}
	ServerError    = &ClassifiedError{kind: KindServerError}
	Unreachable    = &ClassifiedError{kind: KindUnreachable}
	Canceled       = &ClassifiedError{kind: KindCanceled}
	Unknown        = &ClassifiedError{kind: KindUnknown}
)

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// IsClassified checks if an error chain contains a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasKind checks if any error in the chain has the given kind.
func HasKind(err error, kind ErrorKind) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.kind == kind
	}
	return false
}

// KindOf extracts the kind from an error, or returns KindUnknown.
func KindOf(err error) ErrorKind {
	if classified, ok := AsClassified(err); ok {
		return classified.Kind()
	}
	return KindUnknown
}

// IsRetryable reports whether err is a retryable classified error.
func IsRetryable(err error) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.Retryable()
	}
	return false
}
