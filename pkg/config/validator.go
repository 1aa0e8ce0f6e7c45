// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}

	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Address, err)
	}

	for i, s := range c.Seeds {
		if s.ID == "" {
			return fmt.Errorf("seeds[%d].id is required", i)
		}
		if _, _, err := net.SplitHostPort(s.Address); err != nil {
			return fmt.Errorf("seeds[%d].address %q: %w", i, s.Address, err)
		}
	}

	if c.HeartbeatSpread < 1 {
		return fmt.Errorf("heartbeat_spread must be at least 1")
	}

	if c.DecayFactor < 0 {
		return fmt.Errorf("decay_factor must be non-negative")
	}

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if err := c.validateMetrics(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid level %q: must be debug, info, warn, or error", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"text": true, "json": true, "": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid format %q: must be text or json", c.Logging.Format)
	}

	return nil
}

// validateMetrics validates metrics server configuration.
func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return fmt.Errorf("invalid address %q: %w", c.Metrics.Address, err)
		}
	}
	return nil
}
