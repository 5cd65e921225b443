package providers

import (
	"fmt"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
)

// TokenProvider handles username + API token authentication.
type TokenProvider struct{}

// NewTokenProvider creates a new token authentication provider.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{}
}

// Type returns the authentication type this provider handles.
func (p *TokenProvider) Type() config.AuthType {
	return config.AuthTypeToken
}

// CreateAuth creates token authentication from the configuration.
func (p *TokenProvider) CreateAuth(authConfig *config.AuthConfig) (Method, error) {
	if err := p.ValidateConfig(authConfig); err != nil {
		return nil, err
	}
	// Jenkins accepts the token as the Basic auth password and skips crumb
	// validation for it.
	return &BasicAuth{
		Username: authConfig.Username,
		Password: authConfig.APIToken,
		crumb:    false,
	}, nil
}

// ValidateConfig validates the token authentication configuration.
func (p *TokenProvider) ValidateConfig(authConfig *config.AuthConfig) error {
	if authConfig.Username == "" {
		return fmt.Errorf("token authentication requires a username")
	}
	if authConfig.APIToken == "" {
		return fmt.Errorf("token authentication requires an api token")
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *TokenProvider) Name() string {
	return "TokenProvider"
}
