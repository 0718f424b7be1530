// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package config loads and validates the UrbanPulse server configuration
// from layered sources: built-in defaults, an optional YAML file, and
// environment variables, with environment variables taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

// Config is the root configuration for the UrbanPulse server.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig controls the HTTP listener and its middleware.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// AllowedOrigins lists CORS origins permitted to call the API.
	// "*" allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// RateLimit is the maximum number of requests per minute per client IP.
	// 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// StoreConfig controls the durable simulation store.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
	GCRatio    float64       `koanf:"gc_ratio"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	store := simstore.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
			RateLimit:       120,
		},
		Store: StoreConfig{
			Path:       store.Path,
			InMemory:   store.InMemory,
			SyncWrites: store.SyncWrites,
			GCInterval: store.GCInterval,
			GCRatio:    store.GCRatio,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// StoreConfig converts the loaded store section into the simstore form.
func (c *Config) StoreConfig() *simstore.Config {
	cfg := simstore.DefaultConfig()
	cfg.Path = c.Store.Path
	cfg.InMemory = c.Store.InMemory
	cfg.SyncWrites = c.Store.SyncWrites
	cfg.GCInterval = c.Store.GCInterval
	cfg.GCRatio = c.Store.GCRatio
	return cfg
}

// Addr returns the host:port the HTTP server should bind.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("URBANPULSE_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read_timeout must be positive, got %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write_timeout must be positive, got %v", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate_limit must not be negative, got %d", c.Server.RateLimit)
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("server allowed_origins must not be empty")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("URBANPULSE_STORE_PATH is required unless store in_memory is set")
	}
	if c.Store.GCInterval <= 0 {
		return fmt.Errorf("store gc_interval must be positive, got %v", c.Store.GCInterval)
	}
	if c.Store.GCRatio <= 0 || c.Store.GCRatio >= 1 {
		return fmt.Errorf("store gc_ratio must be in (0, 1), got %g", c.Store.GCRatio)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("URBANPULSE_LOG_LEVEL must be one of trace, debug, info, warn, error, fatal; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("URBANPULSE_LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
