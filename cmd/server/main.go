// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

// Package main is the entry point for the Emporium server application.
//
// Emporium is a self-hosted e-commerce backend with a built-in
// collaborative-filtering recommendation engine. It serves a REST API for
// user accounts, a product catalog, ratings, and order management, and
// computes item-based recommendations from the rating history.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and create the relational schema
//  3. Seeding: Ensure the admin account exists; optionally seed demo catalog data
//  4. Authentication: JWT manager and per-IP login rate limiting
//  5. Authorization: Casbin RBAC enforcer (admin > seller > customer)
//  6. Recommendations: Item-based collaborative filtering over the ratings table,
//     with an optional circuit breaker in front of store reads
//  7. HTTP Server: Chi router with CORS, rate limiting, and Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - EMPORIUM_* environment variables
//   - Config file (config.yaml, or EMPORIUM_CONFIG_PATH)
//   - Built-in defaults
//
// Required settings:
//   - EMPORIUM_JWT_SECRET: 32+ character secret for token signing (production)
//
// Optional admin seeding on first startup:
//   - EMPORIUM_ADMIN_USERNAME
//   - EMPORIUM_ADMIN_PASSWORD
//   - EMPORIUM_ADMIN_EMAIL
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the login rate limiter and authorization cache
//   - Closes the database connection
//
// # Example Usage
//
// Development with an in-memory database:
//
//	export EMPORIUM_JWT_SECRET=dev-secret-at-least-32-characters!
//	export EMPORIUM_DUCKDB_PATH=:memory:
//	export EMPORIUM_SEED_DATA=true
//	./emporium
//
// Production:
//
//	export EMPORIUM_JWT_SECRET=$(openssl rand -base64 32)
//	export EMPORIUM_ADMIN_USERNAME=admin
//	export EMPORIUM_ADMIN_PASSWORD=secure-password
//	export EMPORIUM_ADMIN_EMAIL=admin@example.com
//	export EMPORIUM_ENVIRONMENT=production
//	./emporium
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emporium-dev/emporium/internal/api"
	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/authz"
	"github.com/emporium-dev/emporium/internal/config"
	"github.com/emporium-dev/emporium/internal/database"
	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/recommend"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("breaker_enabled", cfg.Recommend.BreakerEnabled).
		Msg("Starting Emporium")

	// Initialize database and schema
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the admin account from config (no-op when unconfigured or present)
	if err := db.EnsureAdminUser(ctx, &cfg.Security); err != nil {
		logging.Fatal().Err(err).Msg("Failed to ensure admin user")
	}

	// Seed demo catalog data if enabled (development and CI environments)
	if cfg.Database.SeedData {
		logging.Info().Msg("Sample data seeding enabled (EMPORIUM_SEED_DATA=true)")
		if err := db.SeedSampleData(ctx); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed sample data")
		}
	}

	// Authentication: JWT signing plus per-IP login throttling
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	authMiddleware := auth.NewMiddleware(jwtManager, cfg.Security.LoginRateLimit)
	defer authMiddleware.Stop()
	logging.Info().Msg("JWT authentication enabled")

	// Authorization: role-based access control with decision caching
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	defer enforcer.Close()
	authzMiddleware := authz.NewMiddleware(enforcer)
	logging.Info().Msg("RBAC authorization enabled")

	// Recommendation engine over the ratings store. The circuit breaker
	// shields matrix builds from a struggling database; the fallback
	// ranking stays reachable even when the circuit is open.
	var recommendStore recommend.Store = db
	if cfg.Recommend.BreakerEnabled {
		recommendStore = recommend.NewBreakerStore(db)
		logging.Info().Msg("Recommendation store circuit breaker enabled")
	}
	recommender := recommend.NewService(recommendStore, &cfg.Recommend)
	logging.Info().
		Int("default_limit", cfg.Recommend.DefaultLimit).
		Int("max_limit", cfg.Recommend.MaxLimit).
		Msg("Recommendation engine initialized")

	handler := api.NewHandler(db, recommender, jwtManager, cfg)
	router := api.NewRouter(handler, authMiddleware, authzMiddleware, cfg)
	server := api.NewServer(router, &cfg.Server)

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
