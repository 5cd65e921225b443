package providers

import (
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
)

// PasswordProvider handles username/password authentication.
type PasswordProvider struct{}

// NewPasswordProvider creates a new password authentication provider.
func NewPasswordProvider() *PasswordProvider {
	return &PasswordProvider{}
}

// Type returns the authentication type this provider handles.
func (p *PasswordProvider) Type() config.AuthType {
	return config.AuthTypePassword
}

// CreateAuth creates basic authentication from the configuration.
func (p *PasswordProvider) CreateAuth(authConfig *config.AuthConfig) (Method, error) {
	if err := p.ValidateConfig(authConfig); err != nil {
		return nil, err
	}
	return &BasicAuth{
		Username: authConfig.Username,
		Password: authConfig.Password,
		crumb:    true,
	}, nil
}

// ValidateConfig validates the password authentication configuration.
func (p *PasswordProvider) ValidateConfig(authConfig *config.AuthConfig) error {
	if authConfig.Username == "" {
		return fmt.Errorf("password authentication requires a username")
	}
	if authConfig.Password == "" {
		return fmt.Errorf("password authentication requires a password")
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *PasswordProvider) Name() string {
	return "PasswordProvider"
}

// BasicAuth sends HTTP Basic credentials.
type BasicAuth struct {
	Username string
	Password string
	crumb    bool
}

func (b *BasicAuth) Apply(req *http.Request) { req.SetBasicAuth(b.Username, b.Password) }
func (b *BasicAuth) Identity() string        { return b.Username }
func (b *BasicAuth) NeedsCrumb() bool        { return b.crumb }
