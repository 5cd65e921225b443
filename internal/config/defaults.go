package config

import "time"

// Default values applied when the file leaves a setting empty.
const (
	DefaultMaxRetries        = 3
	DefaultBaseBackoff       = 200 * time.Millisecond
	DefaultMaxBackoff        = 5 * time.Second
	DefaultRequestTimeout    = 30 * time.Second
	DefaultPageSize          = 100
	DefaultMaxConnections    = 16
	DefaultMonitorInterval   = 30 * time.Second
	DefaultMonitorListenAddr = ":9464"
)

// DefaultApplier fills in defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type jenkinsDefaults struct{}

func (jenkinsDefaults) Domain() string { return "jenkins" }

func (jenkinsDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Jenkins.Auth.Type == "" {
		switch {
		case cfg.Jenkins.Auth.APIToken != "":
			cfg.Jenkins.Auth.Type = AuthTypeToken
		case cfg.Jenkins.Auth.Password != "":
			cfg.Jenkins.Auth.Type = AuthTypePassword
		default:
			cfg.Jenkins.Auth.Type = AuthTypeNone
		}
	}
}

type clientDefaults struct{}

func (clientDefaults) Domain() string { return "client" }

func (clientDefaults) ApplyDefaults(cfg *Config) {
	c := &cfg.Client
	if c.MaxRetries == nil {
		n := DefaultMaxRetries
		c.MaxRetries = &n
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = DefaultBaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.BackoffMode == "" {
		c.BackoffMode = RetryBackoffExponential
	}
	if c.Jitter == nil {
		j := true
		c.Jitter = &j
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}

type monitorDefaults struct{}

func (monitorDefaults) Domain() string { return "monitor" }

func (monitorDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Monitor.Interval <= 0 {
		cfg.Monitor.Interval = DefaultMonitorInterval
	}
	if cfg.Monitor.Listen == "" {
		cfg.Monitor.Listen = DefaultMonitorListenAddr
	}
}

var defaultAppliers = []DefaultApplier{
	jenkinsDefaults{},
	clientDefaults{},
	loggingDefaults{},
	monitorDefaults{},
}

// applyDefaults runs every registered domain applier in order.
func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}
