package classify

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/transport"
)

func raw(status int, body string, headers ...string) *transport.RawResponse {
	h := http.Header{}
	for i := 0; i+1 < len(headers); i += 2 {
		h.Set(headers[i], headers[i+1])
	}
	return &transport.RawResponse{Status: status, Header: h, Body: []byte(body)}
}

func TestClassify_Statuses(t *testing.T) {
	tests := []struct {
		status    int
		kind      errors.ErrorKind
		retryable bool
	}{
		{http.StatusBadRequest, errors.KindInvalidRequest, false},
		{http.StatusUnauthorized, errors.KindUnauthorized, false},
		{http.StatusForbidden, errors.KindUnauthorized, false},
		{http.StatusNotFound, errors.KindNotFound, false},
		{http.StatusRequestTimeout, errors.KindTimeout, true},
		{http.StatusConflict, errors.KindInvalidRequest, false},
		{http.StatusTooManyRequests, errors.KindRateLimited, true},
		{http.StatusInternalServerError, errors.KindServerError, true},
		{http.StatusBadGateway, errors.KindServerError, true},
		{http.StatusServiceUnavailable, errors.KindServerError, true},
		{http.StatusFound, errors.KindInvalidRequest, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			ce := Classify(raw(tt.status, ""), nil)
			require.NotNil(t, ce)
			assert.Equal(t, tt.kind, ce.Kind())
			assert.Equal(t, tt.status, ce.Status())
			assert.Equal(t, tt.retryable, ce.Retryable())
			assert.True(t, ce.RequestSent())
		})
	}
}

func TestClassify_Success(t *testing.T) {
	assert.Nil(t, Classify(raw(http.StatusOK, "{}"), nil))
	assert.Nil(t, Classify(raw(http.StatusNoContent, ""), nil))

	d := operation.Post("job.delete", "job/x/doDelete").Expect(http.StatusOK, http.StatusFound)
	assert.Nil(t, ClassifyFor(d, raw(http.StatusFound, ""), nil))
	assert.NotNil(t, ClassifyFor(d, raw(http.StatusCreated, ""), nil))
}

func TestClassify_RetryAfter(t *testing.T) {
	ce := Classify(raw(http.StatusTooManyRequests, "", "Retry-After", "2"), nil)
	require.NotNil(t, ce)
	d, ok := ce.RetryAfter()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	ce = Classify(raw(http.StatusServiceUnavailable, "", "Retry-After", "soon"), nil)
	_, ok = ce.RetryAfter()
	assert.False(t, ok)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	d, ok := ParseRetryAfter("120", now)
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, d)

	d, ok = ParseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = ParseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now)
	assert.False(t, ok)
	_, ok = ParseRetryAfter("0", now)
	assert.False(t, ok)
	_, ok = ParseRetryAfter("", now)
	assert.False(t, ok)
}

func TestClassify_TransportFailures(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	ce := Classify(nil, &transport.TransportFailure{Method: "GET", URL: "http://ci/api/json", Err: cause})
	require.NotNil(t, ce)
	assert.Equal(t, errors.KindUnreachable, ce.Kind())
	assert.True(t, ce.Retryable())
	assert.False(t, ce.RequestSent())
	assert.Zero(t, ce.Status())
	assert.ErrorIs(t, ce, cause)

	ce = Classify(nil, &transport.TransportFailure{Sent: true, Timeout: true, Err: context.DeadlineExceeded})
	assert.Equal(t, errors.KindTimeout, ce.Kind())
	assert.True(t, ce.RequestSent())

	ce = Classify(nil, &transport.TransportFailure{Canceled: true, Err: context.Canceled})
	assert.Equal(t, errors.KindCanceled, ce.Kind())
	assert.False(t, ce.Retryable())
}

func TestClassify_PlainErrors(t *testing.T) {
	assert.Equal(t, errors.KindCanceled, Classify(nil, context.Canceled).Kind())
	assert.Equal(t, errors.KindTimeout, Classify(nil, fmt.Errorf("wrapped: %w", context.DeadlineExceeded)).Kind())
	assert.Equal(t, errors.KindUnknown, Classify(nil, stderrors.New("weird")).Kind())

	pre := errors.InvalidRequestError("unbound path parameter").Build()
	assert.Same(t, pre, Classify(nil, pre))
	assert.Equal(t, errors.KindUnknown, Classify(nil, nil).Kind())
}

func TestDecodeFailure(t *testing.T) {
	cause := stderrors.New("invalid character")
	ce := DecodeFailure(cause, http.StatusOK)
	assert.Equal(t, errors.KindUnknown, ce.Kind())
	assert.Equal(t, http.StatusOK, ce.Status())
	assert.False(t, ce.Retryable())
	assert.ErrorIs(t, ce, cause)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		resp *transport.RawResponse
		want string
	}{
		{"json message", raw(400, `{"message":"No such job"}`, "Content-Type", "application/json"), "No such job"},
		{"json without message", raw(400, `{"status":400}`), "Bad Request"},
		{
			"html heading",
			raw(500, `<html><head><title>Jenkins</title></head><body><h1>Oops!</h1></body></html>`, "Content-Type", "text/html;charset=utf-8"),
			"Oops!",
		},
		{
			"html title",
			raw(404, `<html><head><title>Error 404 Not Found</title></head><body><p>x</p></body></html>`, "Content-Type", "text/html"),
			"Error 404 Not Found",
		},
		{"plain text", raw(503, "  Jenkins is\n  restarting  "), "Jenkins is restarting"},
		{"empty", raw(502, ""), "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.resp))
		})
	}
}

func TestMessage_Truncates(t *testing.T) {
	msg := Message(raw(500, strings.Repeat("x", 1000)))
	assert.Len(t, msg, maxMessageLen+3)
	assert.True(t, strings.HasSuffix(msg, "..."))
}
