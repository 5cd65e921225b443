package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvURL      = "JENKINS_URL"
	EnvUser     = "JENKINS_USER"
	EnvAPIToken = "JENKINS_API_TOKEN"
	EnvPassword = "JENKINS_PASSWORD"
)

// loadEnvFile loads the first of .env/.env.local that exists. Existing process
// environment variables are never overwritten.
func loadEnvFile() (string, error) {
	for _, envPath := range []string{".env", ".env.local"} {
		err := godotenv.Load(envPath)
		if err == nil {
			return envPath, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// applyEnvOverrides lets the JENKINS_* variables win over the file. A token
// or password variable also selects the matching auth type.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvURL)); v != "" {
		cfg.Jenkins.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		cfg.Jenkins.Auth.Username = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.Jenkins.Auth.APIToken = v
		cfg.Jenkins.Auth.Type = AuthTypeToken
	} else if v := os.Getenv(EnvPassword); v != "" {
		cfg.Jenkins.Auth.Password = v
		cfg.Jenkins.Auth.Type = AuthTypePassword
	}
}
