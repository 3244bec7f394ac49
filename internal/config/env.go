// Package config loads client configuration from the environment and
// provides the CLI fatal-exit helper shared by both binaries.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ClientConfig is the client CLI's environment-driven configuration,
// exactly the variables spec.md §6 names.
type ClientConfig struct {
	URI       string `env:"STAM_URI"`
	Home      string `env:"STAM_HOME"`
	LogDeps   bool   `env:"STAM_LOGDEPS"`
	NoColor   string `env:"NO_COLOR"`
	Term      string `env:"TERM"`
	LogLevel  string `env:"MODHOST_LOG_LEVEL"`
}

// ParseClientEnv loads ClientConfig from the environment.
func ParseClientEnv() (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
