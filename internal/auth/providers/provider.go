package providers

import (
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
)

// Method decorates outgoing requests with credentials.
type Method interface {
	// Apply sets credential headers on req.
	Apply(req *http.Request)

	// Identity returns the user name substituted for {user} in endpoint
	// paths, or an empty string for anonymous access.
	Identity() string

	// NeedsCrumb reports whether state-changing requests must carry a CSRF
	// crumb. Jenkins exempts API-token requests from crumb checks.
	NeedsCrumb() bool
}

// AuthProvider defines the interface for authentication providers.
// Each provider handles a specific authentication method (token, password, none).
type AuthProvider interface {
	// Type returns the authentication type this provider handles.
	Type() config.AuthType

	// CreateAuth creates a Method from the given configuration.
	CreateAuth(authCfg *config.AuthConfig) (Method, error)

	// ValidateConfig validates the authentication configuration for this provider.
	ValidateConfig(authCfg *config.AuthConfig) error

	// Name returns a human-readable name for this provider (for logging/debugging).
	Name() string
}

// ProviderResult wraps the result of authentication creation with metadata.
type ProviderResult struct {
	Auth     Method
	Provider string // Name of the provider that created this auth
	Type     config.AuthType
}

// AuthProviderRegistry manages the collection of available auth providers.
type AuthProviderRegistry struct {
	providers map[config.AuthType]AuthProvider
}

// NewAuthProviderRegistry creates a new registry with the standard providers.
func NewAuthProviderRegistry() *AuthProviderRegistry {
	registry := &AuthProviderRegistry{
		providers: make(map[config.AuthType]AuthProvider),
	}

	registry.Register(NewNoneProvider())
	registry.Register(NewTokenProvider())
	registry.Register(NewPasswordProvider())

	return registry
}

// Register adds a provider to the registry.
func (r *AuthProviderRegistry) Register(provider AuthProvider) {
	r.providers[provider.Type()] = provider
}

// GetProvider returns the provider for the given auth type.
func (r *AuthProviderRegistry) GetProvider(authType config.AuthType) (AuthProvider, bool) {
	provider, exists := r.providers[authType]
	return provider, exists
}

// CreateAuth creates authentication using the appropriate provider.
func (r *AuthProviderRegistry) CreateAuth(authCfg *config.AuthConfig) (*ProviderResult, error) {
	if authCfg == nil || authCfg.Type == "" {
		authCfg = &config.AuthConfig{Type: config.AuthTypeNone}
	}

	provider, exists := r.GetProvider(authCfg.Type)
	if !exists {
		return nil, &AuthError{
			Type:    authCfg.Type,
			Message: "unsupported authentication type",
		}
	}

	if err := provider.ValidateConfig(authCfg); err != nil {
		return nil, &AuthError{
			Type:    authCfg.Type,
			Message: "configuration validation failed",
			Cause:   err,
		}
	}

	auth, err := provider.CreateAuth(authCfg)
	if err != nil {
		return nil, &AuthError{
			Type:    authCfg.Type,
			Message: "failed to create authentication",
			Cause:   err,
		}
	}

	return &ProviderResult{
		Auth:     auth,
		Provider: provider.Name(),
		Type:     provider.Type(),
	}, nil
}

// AuthError represents an authentication-related error.
type AuthError struct {
	Type    config.AuthType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth error (%s): %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("auth error (%s): %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}
