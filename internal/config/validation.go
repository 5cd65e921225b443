package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidateConfig checks every configuration domain and returns the first
// problem found.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if cv.config == nil {
		return errors.New("configuration is nil")
	}
	if err := cv.validateJenkins(); err != nil {
		return err
	}
	if err := cv.validateClient(); err != nil {
		return err
	}
	return cv.validateMonitor()
}

func (cv *configurationValidator) validateJenkins() error {
	raw := strings.TrimSpace(cv.config.Jenkins.URL)
	if raw == "" {
		return fmt.Errorf("jenkins.url is required (or set %s)", EnvURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid jenkins.url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("jenkins.url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("jenkins.url %q has no host", raw)
	}
	return cv.validateAuth(&cv.config.Jenkins.Auth)
}

func (cv *configurationValidator) validateAuth(auth *AuthConfig) error {
	normalized, err := authTypeNormalizer.NormalizeWithError(string(auth.Type))
	if err != nil {
		return err
	}
	auth.Type = normalized

	switch auth.Type {
	case AuthTypeToken:
		if auth.Username == "" || auth.APIToken == "" {
			return errors.New("token auth requires username and api_token")
		}
	case AuthTypePassword:
		if auth.Username == "" || auth.Password == "" {
			return errors.New("password auth requires username and password")
		}
	}
	return nil
}

func (cv *configurationValidator) validateClient() error {
	c := &cv.config.Client
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("client.max_retries must be >= 0, got %d", *c.MaxRetries)
	}
	if c.BaseBackoff < 0 || c.MaxBackoff < 0 {
		return errors.New("client backoff durations must not be negative")
	}
	if c.MaxBackoff > 0 && c.BaseBackoff > c.MaxBackoff {
		return fmt.Errorf("client.base_backoff (%s) exceeds client.max_backoff (%s)", c.BaseBackoff, c.MaxBackoff)
	}
	if c.BackoffMode != "" {
		mode, err := retryBackoffNormalizer.NormalizeWithError(string(c.BackoffMode))
		if err != nil {
			return err
		}
		c.BackoffMode = mode
	}
	if c.TotalDeadline < 0 {
		return errors.New("client.total_deadline must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("client.requests_per_second must not be negative")
	}
	return nil
}

func (cv *configurationValidator) validateMonitor() error {
	if cv.config.Monitor.Interval < 0 {
		return errors.New("monitor.interval must not be negative")
	}
	return nil
}
