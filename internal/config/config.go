// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

// Package config loads and validates application configuration.
//
// Configuration is layered with koanf v2, in increasing precedence:
//
//  1. Built-in defaults
//  2. YAML config file (config.yaml, or EMPORIUM_CONFIG_PATH)
//  3. EMPORIUM_* environment variables
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" runs fully in memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
	SeedData  bool   `koanf:"seed_data"`
}

// APIConfig holds pagination and response settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and authorization settings.
type SecurityConfig struct {
	// JWTSecret signs access tokens. Required; minimum 32 bytes in
	// production.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AdminUsername/AdminPassword seed the initial admin account on
	// first startup. Both empty disables seeding.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
	AdminEmail    string `koanf:"admin_email"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LoginRateLimit caps login attempts per IP per minute.
	LoginRateLimit int `koanf:"login_rate_limit"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// DefaultLimit is the result count when the client omits limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps client-requested result counts.
	MaxLimit int `koanf:"max_limit"`

	// BreakerEnabled wraps store reads in a circuit breaker; when the
	// circuit is open, queries degrade straight to the fallback ranking.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns a Config with all default values. Callers that skip
// file and env loading (tests, tools) start from here.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/emporium.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
			SeedData:  false,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "",
			AdminPassword:   "",
			AdminEmail:      "",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			LoginRateLimit:  5,
			CORSOrigins:     []string{"*"},
		},
		Recommend: RecommendConfig{
			DefaultLimit:   6,
			MaxLimit:       50,
			BreakerEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validation errors.
var (
	ErrMissingJWTSecret = errors.New("security.jwt_secret is required")
	ErrWeakJWTSecret    = errors.New("security.jwt_secret must be at least 32 characters in production")
	ErrInvalidPort      = errors.New("server.port must be between 1 and 65535")
)

// Validate checks the configuration for consistency. It is called by
// LoadWithKoanf after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Security.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Server.Environment == "production" && len(c.Security.JWTSecret) < 32 {
		return ErrWeakJWTSecret
	}

	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}

	if c.API.DefaultPageSize < 1 {
		return errors.New("api.default_page_size must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return errors.New("api.max_page_size must be >= api.default_page_size")
	}

	if c.Recommend.DefaultLimit < 1 {
		return errors.New("recommend.default_limit must be at least 1")
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return errors.New("recommend.max_limit must be >= recommend.default_limit")
	}

	if c.Security.SessionTimeout < time.Minute {
		return errors.New("security.session_timeout must be at least 1 minute")
	}

	return nil
}
