// Package auth decorates Jenkins requests with credentials and CSRF crumbs.
package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/jenkinsrest/internal/auth/providers"
	"git.home.luguber.info/inful/jenkinsrest/internal/config"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
)

// Manager provides a high-level interface for authentication operations.
type Manager struct {
	registry *providers.AuthProviderRegistry
}

// NewManager creates a new authentication manager with the standard providers.
func NewManager() *Manager {
	return &Manager{
		registry: providers.NewAuthProviderRegistry(),
	}
}

// CreateAuthenticator builds an Authenticator for the given configuration.
func (m *Manager) CreateAuthenticator(authCfg *config.AuthConfig) (*Authenticator, error) {
	res, err := m.registry.CreateAuth(authCfg)
	if err != nil {
		return nil, errors.WrapError(err, errors.KindInvalidRequest, "invalid credentials configuration").Build()
	}
	return &Authenticator{method: res.Auth, provider: res.Provider}, nil
}

// DefaultManager is a package-level instance for convenience.
var DefaultManager = NewManager()

// CreateAuthenticator is a convenience function that uses the default manager.
func CreateAuthenticator(authCfg *config.AuthConfig) (*Authenticator, error) {
	return DefaultManager.CreateAuthenticator(authCfg)
}

// crumbFetchTimeout bounds the shared crumb request.
const crumbFetchTimeout = 30 * time.Second

// Crumb is a Jenkins CSRF token.
type Crumb struct {
	Field string // request header name, usually Jenkins-Crumb
	Value string
}

// CrumbSource fetches a fresh crumb from the controller.
type CrumbSource interface {
	FetchCrumb(ctx context.Context) (Crumb, error)
}

// CrumbSourceFunc adapts a function to CrumbSource.
type CrumbSourceFunc func(ctx context.Context) (Crumb, error)

func (f CrumbSourceFunc) FetchCrumb(ctx context.Context) (Crumb, error) { return f(ctx) }

// Authenticator applies credentials to every request and, for methods that
// need one, a lazily fetched crumb to state-changing requests.
type Authenticator struct {
	method   providers.Method
	provider string

	mu     sync.Mutex
	source CrumbSource
	crumb  *Crumb
	fetch  singleflight.Group
}

// SetCrumbSource installs the crumb issuer. Requests made by the source
// itself must be GETs so they never recurse into crumb fetching.
func (a *Authenticator) SetCrumbSource(src CrumbSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
	a.crumb = nil
}

// Identity returns the configured user name, empty for anonymous access.
func (a *Authenticator) Identity() string { return a.method.Identity() }

// Provider names the provider that created the credentials.
func (a *Authenticator) Provider() string { return a.provider }

// Apply decorates req. It may perform one crumb request the first time a
// state-changing request is sent.
func (a *Authenticator) Apply(ctx context.Context, req *http.Request) error {
	a.method.Apply(req)
	if !a.method.NeedsCrumb() || safeMethod(req.Method) {
		return nil
	}
	crumb, err := a.currentCrumb(ctx)
	if err != nil {
		return err
	}
	if crumb.Value != "" {
		req.Header.Set(crumb.Field, crumb.Value)
	}
	return nil
}

// Invalidate drops the cached crumb so the next request fetches a new one.
// Call it after a 403, since crumbs are bound to the session.
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	a.crumb = nil
	a.mu.Unlock()
}

func (a *Authenticator) currentCrumb(ctx context.Context) (Crumb, error) {
	a.mu.Lock()
	cached, src := a.crumb, a.source
	a.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	if src == nil {
		return Crumb{}, nil
	}

	// Concurrent writers share one issuer request; the lock is not held
	// across it. The request outlives any single caller's cancellation.
	ch := a.fetch.DoChan("crumb", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), crumbFetchTimeout)
		defer cancel()
		crumb, err := src.FetchCrumb(fetchCtx)
		if err != nil {
			// Controllers with CSRF protection disabled have no issuer.
			if !errors.HasKind(err, errors.KindNotFound) {
				return Crumb{}, err
			}
			crumb = Crumb{}
		} else if crumb.Field == "" {
			crumb.Field = "Jenkins-Crumb"
		}
		a.mu.Lock()
		a.crumb = &crumb
		a.mu.Unlock()
		return crumb, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Crumb{}, res.Err
		}
		return res.Val.(Crumb), nil
	case <-ctx.Done():
		return Crumb{}, ctx.Err()
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
