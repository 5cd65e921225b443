// Package transport performs single HTTP attempts against a Jenkins
// controller and reports raw outcomes without interpreting them.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/observability"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/version"
)

// HeaderRequestID carries the invocation's correlation ID.
const HeaderRequestID = "X-Request-ID"

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxConnections = 16
	maxBodyBytes          = 32 << 20
)

// Authenticator decorates outgoing requests with credentials.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// Config configures an Adapter.
type Config struct {
	BaseURL            string
	RequestTimeout     time.Duration
	MaxConnections     int
	RequestsPerSecond  float64 // 0 disables client-side rate limiting
	InsecureSkipVerify bool
	UserAgent          string
	Auth               Authenticator

	// RoundTripper replaces the pooled http.Transport, mainly for tests.
	RoundTripper http.RoundTripper
}

// RawResponse is an HTTP response of any status with its body fully read.
type RawResponse struct {
	Status   int
	Header   http.Header
	Body     []byte
	Duration time.Duration
}

// TransportFailure reports an attempt that produced no usable response.
type TransportFailure struct {
	Method string
	URL    string
	// Sent is true once the request, body included, was fully written.
	Sent bool
	// Timeout is true when the per-request timeout or a network deadline
	// fired.
	Timeout bool
	// Canceled is true when the caller's context was canceled.
	Canceled bool
	Err      error
}

func (f *TransportFailure) Error() string {
	return f.Method + " " + f.URL + ": " + f.Err.Error()
}

func (f *TransportFailure) Unwrap() error { return f.Err }

// Adapter turns descriptors into HTTP requests. It is safe for concurrent
// use; all callers share one connection pool.
type Adapter struct {
	base      *url.URL
	client    *http.Client
	timeout   time.Duration
	userAgent string
	auth      Authenticator
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
}

// New builds an Adapter for cfg.BaseURL.
func New(cfg Config) (*Adapter, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.InvalidRequestError("invalid base URL").
			WithCause(err).
			WithContext("base_url", cfg.BaseURL).
			Build()
	}
	base.RawQuery = ""
	base.Fragment = ""

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	rt := cfg.RoundTripper
	if rt == nil {
		pool := http.DefaultTransport.(*http.Transport).Clone()
		pool.MaxConnsPerHost = cfg.MaxConnections
		pool.MaxIdleConnsPerHost = cfg.MaxConnections
		if cfg.InsecureSkipVerify {
			pool.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed controllers
		}
		rt = pool
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.InvalidRequestError("failed to create cookie jar").WithCause(err).Build()
	}

	a := &Adapter{
		base: base,
		client: &http.Client{
			Transport: rt,
			Jar:       jar,
			// Jenkins answers many actions with a redirect whose Location
			// the caller needs, so redirects are never followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout:   cfg.RequestTimeout,
		userAgent: cfg.UserAgent,
		auth:      cfg.Auth,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConnections)),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return a, nil
}

// BaseURL returns a copy of the controller URL.
func (a *Adapter) BaseURL() *url.URL {
	u := *a.base
	return &u
}

// Close releases idle pooled connections.
func (a *Adapter) Close() {
	a.client.CloseIdleConnections()
}

// Execute performs exactly one HTTP exchange for d. Any HTTP status comes
// back as a RawResponse; a *TransportFailure is returned only when no
// response could be read. Descriptor problems surface as InvalidRequest
// classified errors.
func (a *Adapter) Execute(ctx context.Context, d operation.Descriptor, body any) (*RawResponse, error) {
	target, err := a.resolve(d)
	if err != nil {
		return nil, err
	}
	reader, contentType, err := encodeBody(body, d.ContentType())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, d.Method(), target, reader)
	if err != nil {
		return nil, errors.InvalidRequestError("failed to create request").
			WithCause(err).
			WithContext("method", d.Method()).
			WithContext("url", target).
			Build()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := d.Accept(); accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", a.userAgent)
	if id := observability.RequestID(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
	// Credentials go on before a pool slot is taken: a crumb fetch issues
	// its own request through this adapter.
	if a.auth != nil {
		if err := a.auth.Apply(ctx, req); err != nil {
			return nil, err
		}
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			f := a.failure(ctx, d.Method(), target, false, err)
			// The limiter refuses up front when the wait would outlast
			// the deadline.
			if !f.Canceled {
				f.Timeout = true
			}
			return nil, f
		}
	}
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, a.failure(ctx, d.Method(), target, false, err)
	}
	defer a.sem.Release(1)

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var sent atomic.Bool
	reqCtx = httptrace.WithClientTrace(reqCtx, &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				sent.Store(true)
			}
		},
	})
	req = req.WithContext(reqCtx)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, a.failure(ctx, d.Method(), target, sent.Load(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, a.failure(ctx, d.Method(), target, true, err)
	}

	return &RawResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Body:     data,
		Duration: time.Since(start),
	}, nil
}

// resolve joins the descriptor path onto the base URL, keeping any base
// path such as /jenkins, and merges query values.
func (a *Adapter) resolve(d operation.Descriptor) (string, error) {
	p, err := d.Path()
	if err != nil {
		return "", err
	}
	p = strings.TrimPrefix(p, "/")

	var rawQuery string
	if idx := strings.Index(p, "?"); idx != -1 {
		rawQuery = p[idx+1:]
		p = p[:idx]
	}

	basePath := strings.TrimSuffix(a.base.EscapedPath(), "/")
	u, err := url.Parse(a.base.Scheme + "://" + a.base.Host + basePath + "/" + p)
	if err != nil {
		return "", errors.InvalidRequestError("failed to build request URL").
			WithCause(err).
			WithContext("path", p).
			Build()
	}
	u.User = a.base.User

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", errors.InvalidRequestError("invalid query in path").WithCause(err).Build()
	}
	for k, vs := range d.Query() {
		query[k] = vs
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func encodeBody(body any, contentType string) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return http.NoBody, contentType, nil
	case []byte:
		return bytes.NewReader(v), orDefault(contentType, "application/octet-stream"), nil
	case string:
		return strings.NewReader(v), orDefault(contentType, operation.ContentText), nil
	case url.Values:
		return strings.NewReader(v.Encode()), operation.ContentForm, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", errors.InvalidRequestError("failed to marshal request body").
				WithCause(err).
				Build()
		}
		return bytes.NewReader(data), orDefault(contentType, operation.ContentJSON), nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (a *Adapter) failure(ctx context.Context, method, target string, sent bool, err error) *TransportFailure {
	f := &TransportFailure{Method: method, URL: target, Sent: sent, Err: err}
	switch {
	case stderrors.Is(ctx.Err(), context.Canceled):
		f.Canceled = true
	case stderrors.Is(err, context.DeadlineExceeded):
		f.Timeout = true
	default:
		var netErr net.Error
		if stderrors.As(err, &netErr) && netErr.Timeout() {
			f.Timeout = true
		}
	}
	return f
}
