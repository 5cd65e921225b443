// Package config loads jenkinsctl configuration from YAML, .env files and
// JENKINS_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
)

// Config is the root configuration document.
type Config struct {
	Jenkins JenkinsConfig `yaml:"jenkins"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// JenkinsConfig identifies the controller.
type JenkinsConfig struct {
	URL  string     `yaml:"url"`
	Auth AuthConfig `yaml:"auth"`
}

// ClientConfig tunes the resilient request core.
type ClientConfig struct {
	MaxRetries         *int             `yaml:"max_retries,omitempty"`
	BaseBackoff        time.Duration    `yaml:"base_backoff,omitempty"`
	MaxBackoff         time.Duration    `yaml:"max_backoff,omitempty"`
	BackoffMode        RetryBackoffMode `yaml:"backoff_mode,omitempty"`
	Jitter             *bool            `yaml:"jitter,omitempty"`
	RequestTimeout     time.Duration    `yaml:"request_timeout,omitempty"`
	TotalDeadline      time.Duration    `yaml:"total_deadline,omitempty"` // 0 = none
	PageSize           int              `yaml:"page_size,omitempty"`
	MaxConnections     int              `yaml:"max_connections,omitempty"`
	RequestsPerSecond  float64          `yaml:"requests_per_second,omitempty"` // 0 = unlimited
	InsecureSkipVerify bool             `yaml:"insecure_skip_verify,omitempty"`
}

// Retries returns the configured retry budget.
func (c ClientConfig) Retries() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

// JitterEnabled reports whether backoff delays are randomized.
func (c ClientConfig) JitterEnabled() bool {
	return c.Jitter == nil || *c.Jitter
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MonitorConfig drives the polling monitor.
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	Listen   string        `yaml:"listen,omitempty"`
}

// Load reads configPath (optional when empty or missing and JENKINS_URL is
// set), applies .env files, environment overrides and defaults, then
// validates the result.
func Load(configPath string) (*Config, error) {
	if envPath, err := loadEnvFile(); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	} else if envPath != "" {
		slog.Debug("Loaded environment variables", "path", envPath)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := Parse(data, &cfg); err != nil {
				return nil, err
			}
		case os.IsNotExist(err) && os.Getenv(EnvURL) != "":
			slog.Debug("Configuration file not found, using environment", "path", configPath)
		case os.IsNotExist(err):
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.KindInvalidRequest, "invalid configuration").Build()
	}
	return &cfg, nil
}

// Parse decodes YAML after expanding ${VAR} references.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// Default returns a configuration with every default applied and no
// controller set.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Jenkins = JenkinsConfig{
		URL: "https://jenkins.example.com",
		Auth: AuthConfig{
			Type:     AuthTypeToken,
			Username: "${JENKINS_USER}",
			APIToken: "${JENKINS_API_TOKEN}",
		},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
