// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import "fmt"

// createTables creates the schema if it does not exist. All DDL is
// idempotent so startup can run it unconditionally.
func (db *DB) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			username VARCHAR NOT NULL UNIQUE,
			email VARCHAR NOT NULL UNIQUE,
			password_hash VARCHAR NOT NULL,
			role VARCHAR NOT NULL DEFAULT 'customer',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT '',
			price DOUBLE NOT NULL,
			category VARCHAR NOT NULL,
			brand VARCHAR NOT NULL DEFAULT '',
			stock INTEGER NOT NULL DEFAULT 0,
			average_rating DOUBLE NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// One rating per (user, product); re-rating upserts.
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id VARCHAR NOT NULL,
			product_id VARCHAR NOT NULL,
			rating DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'pending',
			total DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Price is the unit price captured at order time.
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id VARCHAR NOT NULL,
			product_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			price DOUBLE NOT NULL,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (order_id, product_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes used by the hot queries:
// rating snapshots for the recommender and per-user order listings.
func (db *DB) createIndexes() error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_ratings_product ON ratings (product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
	}

	for _, stmt := range indexes {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
