// Package classify maps raw transport outcomes onto the error taxonomy.
package classify

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/transport"
)

// Classify interprets one attempt using the default success set (any 2xx).
// A nil result means success.
func Classify(resp *transport.RawResponse, err error) *errors.ClassifiedError {
	return ClassifyFor(operation.Descriptor{}, resp, err)
}

// ClassifyFor interprets one attempt of d. Statuses d declares as expected
// count as success.
func ClassifyFor(d operation.Descriptor, resp *transport.RawResponse, err error) *errors.ClassifiedError {
	if err != nil {
		return classifyError(err)
	}
	if resp == nil {
		return errors.UnknownError("no response received").Build()
	}
	if d.IsExpected(resp.Status) {
		return nil
	}
	return classifyStatus(resp)
}

// DecodeFailure reports a success response whose body could not be decoded.
func DecodeFailure(err error, status int) *errors.ClassifiedError {
	return errors.UnknownError("failed to decode response body").
		WithStatus(status).
		WithCause(err).
		Build()
}

func classifyStatus(resp *transport.RawResponse) *errors.ClassifiedError {
	kind := KindForStatus(resp.Status)
	b := errors.NewError(kind, Message(resp)).WithStatus(resp.Status)
	if d, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
		b = b.WithRetryAfter(d)
	}
	return b.Build()
}

// KindForStatus maps an unexpected HTTP status onto an error kind.
func KindForStatus(status int) errors.ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return errors.KindUnauthorized
	case status == http.StatusNotFound:
		return errors.KindNotFound
	case status == http.StatusRequestTimeout:
		return errors.KindTimeout
	case status == http.StatusTooManyRequests:
		return errors.KindRateLimited
	case status >= 500 && status <= 599:
		return errors.KindServerError
	default:
		return errors.KindInvalidRequest
	}
}

func classifyError(err error) *errors.ClassifiedError {
	if classified, ok := errors.AsClassified(err); ok {
		return classified
	}

	var failure *transport.TransportFailure
	if stderrors.As(err, &failure) {
		var b *errors.ErrorBuilder
		switch {
		case failure.Canceled:
			b = errors.CanceledError("request canceled")
		case failure.Timeout:
			b = errors.TimeoutError("request timed out")
		default:
			b = errors.UnreachableError("controller unreachable")
		}
		return b.WithCause(failure.Err).
			WithRequestSent(failure.Sent).
			WithContext("method", failure.Method).
			WithContext("url", failure.URL).
			Build()
	}

	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.CanceledError("request canceled").WithCause(err).Build()
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.TimeoutError("deadline exceeded").WithCause(err).Build()
	default:
		return errors.WrapError(err, errors.KindUnknown, "unexpected failure").Build()
	}
}

// ParseRetryAfter reads a Retry-After value given in seconds or as an HTTP
// date relative to now.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
	}
	return 0, false
}
