// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

// CreateUser inserts a new user. Returns ErrConflict when the username
// or email is already taken.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	start := time.Now()

	// Uniqueness is checked explicitly: DuckDB reports constraint
	// violations as generic errors that are awkward to match.
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`,
		user.Username, user.Email,
	).Scan(&count)
	if err != nil {
		metrics.RecordDBQuery("SELECT", "users", time.Since(start), err)
		return fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("username or email taken: %w", ErrConflict)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	metrics.RecordDBQuery("INSERT", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID fetches a user by id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = ?`, id)
}

// GetUserByUsername fetches a user by username. Used by login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users WHERE username = ?`, username)
}

func (db *DB) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	start := time.Now()

	var u models.User
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	metrics.RecordDBQuery("SELECT", "users", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateUserRole changes a user's role.
func (db *DB) UpdateUserRole(ctx context.Context, id, role string) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now().UTC(), id,
	)
	metrics.RecordDBQuery("UPDATE", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users. Used to decide whether
// admin seeding is needed.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	start := time.Now()

	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	metrics.RecordDBQuery("SELECT", "users", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
