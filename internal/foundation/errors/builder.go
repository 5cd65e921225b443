package errors

import "time"

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	kind        ErrorKind
	status      int
	retryable   bool
	requestSent bool
	retryAfter  time.Duration
	message     string
	cause       error
	context     ErrorContext
}

// NewError creates a new ErrorBuilder with the specified kind and message.
// Retryability defaults to the kind's default.
func NewError(kind ErrorKind, message string) *ErrorBuilder {
	return &ErrorBuilder{
		kind:      kind,
		retryable: kind.DefaultRetryable(),
		message:   message,
		context:   make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, kind ErrorKind, message string) *ErrorBuilder {
	return NewError(kind, message).WithCause(err)
}

// WithStatus records the HTTP status code. A response implies the request
// was sent.
func (b *ErrorBuilder) WithStatus(status int) *ErrorBuilder {
	b.status = status
	if status > 0 {
		b.requestSent = true
	}
	return b
}

// WithCause sets the underlying error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithRetryable overrides the kind's default retryability.
func (b *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	b.retryable = retryable
	return b
}

// WithRequestSent records whether the request was fully written.
func (b *ErrorBuilder) WithRequestSent(sent bool) *ErrorBuilder {
	b.requestSent = sent
	return b
}

// WithRetryAfter records the server's Retry-After hint.
func (b *ErrorBuilder) WithRetryAfter(d time.Duration) *ErrorBuilder {
	b.retryAfter = d
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// WithContextMap adds multiple context values.
func (b *ErrorBuilder) WithContextMap(ctx ErrorContext) *ErrorBuilder {
	b.context = b.context.Merge(ctx)
	return b
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		kind:        b.kind,
		status:      b.status,
		retryable:   b.retryable,
		requestSent: b.requestSent,
		retryAfter:  b.retryAfter,
		message:     b.message,
		cause:       b.cause,
		context:     b.context.clone(),
	}
}

// Convenience constructors for common error patterns

// InvalidRequestError creates a non-retryable request construction error.
func InvalidRequestError(message string) *ErrorBuilder {
	return NewError(KindInvalidRequest, message)
}

// UnreachableError creates a connection-level error.
func UnreachableError(message string) *ErrorBuilder {
	return NewError(KindUnreachable, message)
}

// TimeoutError creates a timeout error.
func TimeoutError(message string) *ErrorBuilder {
	return NewError(KindTimeout, message)
}

// CanceledError creates a cancellation error.
func CanceledError(message string) *ErrorBuilder {
	return NewError(KindCanceled, message)
}

// UnknownError creates an error for responses that could not be decoded.
func UnknownError(message string) *ErrorBuilder {
	return NewError(KindUnknown, message)
}
