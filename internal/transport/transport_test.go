package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/observability"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
)

type headerAuth struct{ calls atomic.Int32 }

func (h *headerAuth) Apply(_ context.Context, req *http.Request) error {
	h.calls.Add(1)
	req.SetBasicAuth("alice", "token")
	return nil
}

func newAdapter(t *testing.T, baseURL string, mutate ...func(*Config)) *Adapter {
	t.Helper()
	cfg := Config{BaseURL: baseURL, RequestTimeout: 2 * time.Second, UserAgent: "jenkinsrest/test"}
	for _, m := range mutate {
		m(&cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindInvalidRequest))
}

func TestExecute_BuildsRequest(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	auth := &headerAuth{}
	a := newAdapter(t, srv.URL+"/jenkins/", func(c *Config) { c.Auth = auth })

	d := operation.Get("job.builds", "job/{name}/api/json").
		Bind("name", "my job").
		WithQuery("tree", "allBuilds[number]{0,100}")
	ctx := observability.WithRequestID(context.Background(), "req-42")

	resp, err := a.Execute(ctx, d, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	require.NotNil(t, got)
	assert.Equal(t, "/jenkins/job/my%20job/api/json", got.URL.EscapedPath())
	assert.Equal(t, "allBuilds[number]{0,100}", got.URL.Query().Get("tree"))
	assert.Equal(t, "jenkinsrest/test", got.Header.Get("User-Agent"))
	assert.Equal(t, "req-42", got.Header.Get(HeaderRequestID))
	assert.Equal(t, operation.ContentJSON, got.Header.Get("Accept"))
	user, _, ok := got.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, int32(1), auth.calls.Load())
}

func TestExecute_ErrorStatusIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := newAdapter(t, srv.URL).Execute(context.Background(), operation.Get("x", "api/json"), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "3", resp.Header.Get("Retry-After"))
	assert.Contains(t, string(resp.Body), "busy")
}

func TestExecute_RedirectNotFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/queue/item/17/")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	resp, err := newAdapter(t, srv.URL).Execute(context.Background(), operation.Post("job.build", "job/x/build"), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "/queue/item/17/", resp.Header.Get("Location"))
}

func TestExecute_BodyEncoding(t *testing.T) {
	type seen struct{ contentType, body string }
	var last seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		last = seen{r.Header.Get("Content-Type"), string(b)}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	a := newAdapter(t, srv.URL)
	ctx := context.Background()

	tests := []struct {
		name     string
		desc     operation.Descriptor
		body     any
		wantType string
		wantBody string
	}{
		{"form", operation.Post("f", "x"), url.Values{"id": {"7"}}, operation.ContentForm, "id=7"},
		{"xml string", operation.Post("c", "x").WithContentType(operation.ContentXML), "<project/>", operation.ContentXML, "<project/>"},
		{"text", operation.Post("t", "x"), "jenkins:\n", operation.ContentText, "jenkins:\n"},
		{"json", operation.Post("j", "x"), map[string]int{"a": 1}, operation.ContentJSON, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Execute(ctx, tt.desc, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, last.contentType)
			assert.Equal(t, tt.wantBody, last.body)
		})
	}
}

func TestExecute_UnboundParam(t *testing.T) {
	a := newAdapter(t, "http://127.0.0.1:1")
	_, err := a.Execute(context.Background(), operation.Get("x", "job/{name}/api/json"), nil)
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindInvalidRequest))
}

func TestExecute_ConnectionRefusedIsNotSent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	_, err := newAdapter(t, target).Execute(context.Background(), operation.Post("x", "job/x/build"), nil)
	var failure *TransportFailure
	require.ErrorAs(t, err, &failure)
	assert.False(t, failure.Sent)
	assert.False(t, failure.Canceled)
}

func TestExecute_DroppedAfterWriteIsSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("hijacking unsupported")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	_, err := newAdapter(t, srv.URL).Execute(context.Background(), operation.Post("x", "job/x/build"), url.Values{"a": {"b"}})
	var failure *TransportFailure
	require.ErrorAs(t, err, &failure)
	assert.True(t, failure.Sent)
}

func TestExecute_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	a := newAdapter(t, srv.URL, func(c *Config) { c.RequestTimeout = 50 * time.Millisecond })
	_, err := a.Execute(context.Background(), operation.Get("x", "api/json"), nil)
	var failure *TransportFailure
	require.ErrorAs(t, err, &failure)
	assert.True(t, failure.Timeout)
	assert.False(t, failure.Canceled)
}

func TestExecute_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newAdapter(t, srv.URL).Execute(ctx, operation.Get("x", "api/json"), nil)
	var failure *TransportFailure
	require.ErrorAs(t, err, &failure)
	assert.True(t, failure.Canceled)
}

func TestExecute_RateLimitPastDeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	a := newAdapter(t, srv.URL, func(c *Config) { c.RequestsPerSecond = 0.1 })
	_, err := a.Execute(context.Background(), operation.Get("x", "api/json"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = a.Execute(ctx, operation.Post("x", "quietDown"), nil)
	var failure *TransportFailure
	require.ErrorAs(t, err, &failure)
	assert.True(t, failure.Timeout)
	assert.False(t, failure.Sent)
	assert.False(t, failure.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecute_BoundsInFlightRequests(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}))
	defer srv.Close()

	a := newAdapter(t, srv.URL, func(c *Config) { c.MaxConnections = 2 })
	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Execute(context.Background(), operation.Get("x", "api/json"), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
