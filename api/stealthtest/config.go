package stealthtest

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the upstream settings of the proxy.
type Config struct {
	// APIKey authenticates the proxy against the upstream.
	APIKey string `env:"STEALTHTEST_API_KEY,required,notEmpty"`

	// URL is the upstream endpoint creating environments.
	URL string `env:"STEALTHTEST_API_URL" envDefault:"https://staging-api.nameless.io/v1/environments"`

	// EnvironmentName is the name given to every created environment.
	EnvironmentName string `env:"STEALTHTEST_ENVIRONMENT_NAME" envDefault:"StealthTest"`
}

// ConfigFromEnv loads Config from the process environment.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
