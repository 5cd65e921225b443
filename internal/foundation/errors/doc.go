// Package errors provides the classified error type returned by every
// Jenkins REST invocation.
//
// A ClassifiedError answers the questions a caller needs without inspecting
// transport internals:
//   - ErrorKind: what went wrong (unauthorized, not_found, rate_limited, ...)
//   - Status: the HTTP status code, or 0 when no response was received
//   - Retryable: whether the failure is transient
//   - Attempts: how many attempts the orchestrator made before giving up
//
// Example usage:
//
//	err := errors.NewError(errors.KindServerError, "jenkins returned 503").
//		WithStatus(503).
//		WithCause(originalErr).
//		WithContext("path", "/job/foo/api/json").
//		Build()
package errors
