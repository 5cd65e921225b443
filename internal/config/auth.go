package config

import "git.home.luguber.info/inful/jenkinsrest/internal/foundation/normalization"

// AuthType enumerates supported Jenkins authentication methods.
type AuthType string

const (
	AuthTypeNone     AuthType = "none"
	AuthTypeToken    AuthType = "token"    // username + API token
	AuthTypePassword AuthType = "password" // username + password
)

// AuthConfig carries the credentials for one Jenkins controller.
type AuthConfig struct {
	Type     AuthType `yaml:"type"` // token|password|none
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	APIToken string   `yaml:"api_token,omitempty"`
}

// IsAnonymous reports whether requests go out without credentials.
func (a *AuthConfig) IsAnonymous() bool {
	return a == nil || a.Type == "" || a.Type == AuthTypeNone
}

// Secret returns the password or API token matching the auth type.
func (a *AuthConfig) Secret() string {
	if a == nil {
		return ""
	}
	switch a.Type {
	case AuthTypeToken:
		return a.APIToken
	case AuthTypePassword:
		return a.Password
	default:
		return ""
	}
}

var authTypeNormalizer = normalization.NewNormalizer("auth type", map[string]AuthType{
	"":          AuthTypeNone,
	"none":      AuthTypeNone,
	"anonymous": AuthTypeNone,
	"token":     AuthTypeToken,
	"api_token": AuthTypeToken,
	"apitoken":  AuthTypeToken,
	"password":  AuthTypePassword,
	"basic":     AuthTypePassword,
}, "")

// NormalizeAuthType maps user input onto a known auth type, returning empty
// string for unknown values. "basic" is accepted as an alias for password.
func NormalizeAuthType(raw string) AuthType {
	return authTypeNormalizer.Normalize(raw)
}
