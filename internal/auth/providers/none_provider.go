package providers

import (
	"net/http"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
)

// NoneProvider handles anonymous access.
type NoneProvider struct{}

// NewNoneProvider creates a new none authentication provider.
func NewNoneProvider() *NoneProvider {
	return &NoneProvider{}
}

// Type returns the authentication type this provider handles.
func (p *NoneProvider) Type() config.AuthType {
	return config.AuthTypeNone
}

// CreateAuth returns a method that sends no credentials.
func (p *NoneProvider) CreateAuth(_ *config.AuthConfig) (Method, error) {
	return anonymous{}, nil
}

// ValidateConfig accepts any configuration.
func (p *NoneProvider) ValidateConfig(_ *config.AuthConfig) error {
	return nil
}

// Name returns a human-readable name for this provider.
func (p *NoneProvider) Name() string {
	return "NoneProvider"
}

type anonymous struct{}

func (anonymous) Apply(*http.Request) {}
func (anonymous) Identity() string    { return "" }
func (anonymous) NeedsCrumb() bool    { return true }
