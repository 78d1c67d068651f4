// Package config loads the environment settings and the instrumentation
// manifest.
package config

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/logging"
)

// EnvPrefix prefixes every environment variable, e.g. DBWEAVE_LOG_LEVEL
const EnvPrefix = "DBWEAVE"

// Env holds settings read from the environment
type Env struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
	Manifest string `envconfig:"MANIFEST" default:"dbweave.yaml"`
	Workers  int    `envconfig:"WORKERS" default:"4"`
}

// LoadEnv reads Env from the process environment
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, errors.WrapConfigurationError("environment", "load", err)
	}
	if env.Workers < 1 {
		return nil, errors.NewValidationError(EnvPrefix+"_WORKERS", "a positive number", "non-positive")
	}
	return &env, nil
}

// DefaultEnv returns the settings used when nothing is configured
func DefaultEnv() *Env {
	return &Env{LogLevel: "info", Manifest: "dbweave.yaml", Workers: 4}
}

// LoggingConfig converts the log settings for the logging package
func (e *Env) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = e.LogLevel
	cfg.Development = e.LogDev
	return cfg
}
