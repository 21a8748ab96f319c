// Package config loads CLI defaults from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds defaults that command-line flags may override.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"EXPRGRAPH_LOG_LEVEL" envDefault:"info"`

	// Workers caps the number of states evaluated in parallel; 0 means one
	// per state.
	Workers int `env:"EXPRGRAPH_WORKERS" envDefault:"0"`

	// Metrics enables Prometheus hooks for evaluation commands.
	Metrics bool `env:"EXPRGRAPH_METRICS" envDefault:"false"`

	// Addr is the listen address of the inspection server.
	Addr string `env:"EXPRGRAPH_ADDR" envDefault:"127.0.0.1:8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("parse env: EXPRGRAPH_WORKERS must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}
