// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/config"
	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/models"
)

// EnsureAdminUser creates the bootstrap admin account on first start.
// It is a no-op when the configured admin username already exists.
func (db *DB) EnsureAdminUser(ctx context.Context, cfg *config.SecurityConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logging.Warn().Msg("admin credentials not configured, skipping admin bootstrap")
		return nil
	}

	_, err := db.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logging.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
	return nil
}

// SeedSampleData populates an empty catalog with demo products so the
// API and recommender have something to serve in development. It does
// nothing when any product already exists.
func (db *DB) SeedSampleData(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	samples := []models.Product{
		{Name: "Aurora Mechanical Keyboard", Description: "Hot-swappable 75% board with PBT keycaps", Price: 129.99, Category: "electronics", Brand: "Keychron", Stock: 40},
		{Name: "Nimbus Wireless Mouse", Description: "Lightweight 59g wireless mouse", Price: 79.50, Category: "electronics", Brand: "Logitech", Stock: 65},
		{Name: "Solstice 27 Monitor", Description: "27-inch 1440p IPS display", Price: 329.00, Category: "electronics", Brand: "Dell", Stock: 18},
		{Name: "Trailhead Daypack 22L", Description: "Water-resistant hiking daypack", Price: 89.00, Category: "outdoors", Brand: "Osprey", Stock: 30},
		{Name: "Basecamp Tent 2P", Description: "Two-person three-season tent", Price: 249.00, Category: "outdoors", Brand: "MSR", Stock: 12},
		{Name: "Ember Pour-Over Kettle", Description: "Gooseneck kettle with thermometer", Price: 54.95, Category: "kitchen", Brand: "Fellow", Stock: 55},
		{Name: "Grind Master Burr Grinder", Description: "Conical burr grinder, 40 settings", Price: 119.00, Category: "kitchen", Brand: "Baratza", Stock: 25},
		{Name: "Cast Iron Skillet 12in", Description: "Pre-seasoned cast iron skillet", Price: 34.90, Category: "kitchen", Brand: "Lodge", Stock: 80},
		{Name: "Meridian Running Shoes", Description: "Neutral daily trainer", Price: 139.95, Category: "apparel", Brand: "Brooks", Stock: 48},
		{Name: "Summit Merino Hoodie", Description: "Midweight merino wool hoodie", Price: 110.00, Category: "apparel", Brand: "Smartwool", Stock: 36},
	}

	now := time.Now().UTC()
	for i := range samples {
		samples[i].ID = uuid.NewString()
		samples[i].CreatedAt = now
		samples[i].UpdatedAt = now
		if err := db.CreateProduct(ctx, &samples[i]); err != nil {
			return fmt.Errorf("failed to seed product %q: %w", samples[i].Name, err)
		}
	}

	logging.Info().Int("products", len(samples)).Msg("sample catalog seeded")
	return nil
}
