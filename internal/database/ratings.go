// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

// UpsertRating records a user's rating for a product, replacing any
// previous rating by the same user. The product's average_rating and
// rating_count are recomputed from the ratings table so they never
// drift from the source rows.
func (db *DB) UpsertRating(ctx context.Context, userID, productID string, rating float64) error {
	// Rating an unknown product is a 404, not a silent no-op.
	if _, err := db.GetProduct(ctx, productID); err != nil {
		return err
	}

	start := time.Now()
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ratings (user_id, product_id, rating, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, product_id)
		 DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at`,
		userID, productID, rating, now, now,
	)
	metrics.RecordDBQuery("INSERT", "ratings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	return db.refreshProductRating(ctx, productID)
}

// refreshProductRating recomputes the denormalized rating aggregate on
// the product row.
func (db *DB) refreshProductRating(ctx context.Context, productID string) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE products SET
			average_rating = COALESCE((SELECT AVG(rating) FROM ratings WHERE product_id = ?), 0),
			rating_count = (SELECT COUNT(*) FROM ratings WHERE product_id = ?),
			updated_at = ?
		 WHERE id = ?`,
		productID, productID, time.Now().UTC(), productID,
	)
	metrics.RecordDBQuery("UPDATE", "products", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to refresh product rating: %w", err)
	}
	return nil
}

// ListRatings returns every rating in the store. The recommender uses
// this snapshot to build its user-item matrix.
func (db *DB) ListRatings(ctx context.Context) ([]models.Rating, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, product_id, rating, created_at, updated_at
		 FROM ratings ORDER BY created_at, user_id, product_id`)
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer closeQuietly(rows)

	return scanRatings(rows)
}

// ListRatingsForUser returns one user's ratings in the order they were
// first recorded.
func (db *DB) ListRatingsForUser(ctx context.Context, userID string) ([]models.Rating, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, product_id, rating, created_at, updated_at
		 FROM ratings WHERE user_id = ? ORDER BY created_at, product_id`, userID)
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ratings: %w", err)
	}
	defer closeQuietly(rows)

	return scanRatings(rows)
}

func scanRatings(rows *sql.Rows) ([]models.Rating, error) {
	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.ProductID, &r.Rating, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return ratings, nil
}
