// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultAddress           = "0.0.0.0:7946"
	DefaultHeartbeatInterval = 1 * time.Second
	DefaultHeartbeatSpread   = 3
	DefaultPollInterval      = 10 * time.Millisecond
	DefaultDecayFactor       = 0.1

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsAddress = "127.0.0.1:9090"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Load reads and parses a configuration file from the given path.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, applying defaults for
// any field left unset.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Validate validates the configuration (called separately after Parse
// if needed).
func Validate(cfg *Config) error {
	return cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.HeartbeatSpread == 0 {
		cfg.HeartbeatSpread = DefaultHeartbeatSpread
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.DecayFactor == 0 {
		cfg.DecayFactor = DefaultDecayFactor
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		cfg.Metrics.Address = DefaultMetricsAddress
	}
}
