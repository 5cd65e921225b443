package errors

import "maps"

// ErrorKind is the classified outcome of a failed Jenkins call.
type ErrorKind string

const (
	// KindUnauthorized covers 401 and 403 responses.
	KindUnauthorized   ErrorKind = "unauthorized"
	KindNotFound       ErrorKind = "not_found"
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindRateLimited and the kinds below it are transient.
	KindRateLimited ErrorKind = "rate_limited"
	KindTimeout     ErrorKind = "timeout"
	KindServerError ErrorKind = "server_error"
	KindUnreachable ErrorKind = "unreachable"

	// KindCanceled is returned when the caller's context ends the invocation.
	KindCanceled ErrorKind = "canceled"
	// KindUnknown is returned when a response could not be decoded.
	KindUnknown ErrorKind = "unknown"
)

// Kinds lists every kind in a stable order.
func Kinds() []ErrorKind {
	return []ErrorKind{
		KindUnauthorized, KindNotFound, KindInvalidRequest,
		KindRateLimited, KindTimeout, KindServerError, KindUnreachable,
		KindCanceled, KindUnknown,
	}
}

// DefaultRetryable reports whether failures of this kind are retryable
// unless a builder overrides it.
func (k ErrorKind) DefaultRetryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindServerError, KindUnreachable:
		return true
	default:
		return false
	}
}

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}

// clone returns an independent copy so derived errors never share maps.
func (c ErrorContext) clone() ErrorContext {
	if c == nil {
		return nil
	}
	out := make(ErrorContext, len(c))
	maps.Copy(out, c)
	return out
}
