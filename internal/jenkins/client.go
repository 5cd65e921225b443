// Package jenkins is a typed client for the Jenkins REST API built on the
// request orchestrator.
package jenkins

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/jenkinsrest/internal/auth"
	"git.home.luguber.info/inful/jenkinsrest/internal/config"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/logfields"
	"git.home.luguber.info/inful/jenkinsrest/internal/metrics"
	"git.home.luguber.info/inful/jenkinsrest/internal/observability"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/orchestrator"
	"git.home.luguber.info/inful/jenkinsrest/internal/retry"
	"git.home.luguber.info/inful/jenkinsrest/internal/transport"
)

// Client talks to one Jenkins controller. It is safe for concurrent use.
type Client struct {
	orch    *orchestrator.Orchestrator
	auth    *auth.Authenticator
	adapter *transport.Adapter
	logger  *slog.Logger
}

type options struct {
	logger       *slog.Logger
	recorder     metrics.Recorder
	roundTripper http.RoundTripper
	orchOpts     []orchestrator.Option
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger used for attempt and invocation logs.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithRecorder records retry and pagination metrics.
func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }

// WithRoundTripper replaces the pooled HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.roundTripper = rt }
}

// WithOrchestratorOptions passes extra options to the orchestrator, after
// the ones derived from configuration.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(o *options) { o.orchOpts = append(o.orchOpts, opts...) }
}

// New wires authentication, transport, retry policy and orchestrator from
// cfg. cfg is expected to have passed config.Load or config.ValidateConfig.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.InvalidRequestError("configuration is required").Build()
	}
	o := &options{logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(o)
	}

	authn, err := auth.CreateAuthenticator(&cfg.Jenkins.Auth)
	if err != nil {
		return nil, err
	}

	adapter, err := transport.New(transport.Config{
		BaseURL:            cfg.Jenkins.URL,
		RequestTimeout:     cfg.Client.RequestTimeout,
		MaxConnections:     cfg.Client.MaxConnections,
		RequestsPerSecond:  cfg.Client.RequestsPerSecond,
		InsecureSkipVerify: cfg.Client.InsecureSkipVerify,
		Auth:               authn,
		RoundTripper:       o.roundTripper,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{auth: authn, adapter: adapter, logger: o.logger}
	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(o.logger),
		orchestrator.WithRecorder(o.recorder),
		orchestrator.WithTotalDeadline(cfg.Client.TotalDeadline),
		orchestrator.WithPageSize(cfg.Client.PageSize),
		orchestrator.WithFailureHook(c.onFailure),
	}
	c.orch = orchestrator.New(adapter, retry.FromConfig(cfg.Client), append(orchOpts, o.orchOpts...)...)
	authn.SetCrumbSource(auth.CrumbSourceFunc(c.fetchCrumb))
	return c, nil
}

// Orchestrator exposes the underlying orchestrator for descriptors the
// typed methods do not cover.
func (c *Client) Orchestrator() *orchestrator.Orchestrator { return c.orch }

// Identity is the configured user name, empty for anonymous access.
func (c *Client) Identity() string { return c.auth.Identity() }

// BaseURL returns the controller URL.
func (c *Client) BaseURL() string { return c.adapter.BaseURL().String() }

// Close releases idle connections.
func (c *Client) Close() { c.adapter.Close() }

func (c *Client) fetchCrumb(ctx context.Context) (auth.Crumb, error) {
	res, err := orchestrator.Do[crumbResponse](ctx, c.orch, CrumbOp(), nil)
	if err != nil {
		return auth.Crumb{}, err
	}
	return auth.Crumb{Field: res.Value.Field, Value: res.Value.Crumb}, nil
}

// onFailure drops the cached crumb when a state-changing request is
// refused; crumbs expire with the session.
func (c *Client) onFailure(ctx context.Context, d operation.Descriptor, err *errors.ClassifiedError) {
	if err.Status() != http.StatusForbidden || d.Method() == http.MethodGet || d.Method() == http.MethodHead {
		return
	}
	c.auth.Invalidate()
	observability.LogAttrs(ctx, c.logger, slog.LevelDebug, "Dropped cached crumb",
		logfields.Operation(d.Name()), logfields.Status(err.Status()))
}

func do[T any](ctx context.Context, c *Client, d operation.Descriptor, body any) (T, error) {
	res, err := orchestrator.Do[T](ctx, c.orch, d, body)
	return res.Value, err
}
