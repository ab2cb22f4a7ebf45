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
	"strings"
	"time"

	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

const productColumns = `id, name, description, price, category, brand, stock,
	average_rating, rating_count, created_at, updated_at`

// CreateProduct inserts a new catalog entry.
func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, category, brand, stock,
			average_rating, rating_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Brand, p.Stock,
		p.AverageRating, p.RatingCount, p.CreatedAt, p.UpdatedAt,
	)
	metrics.RecordDBQuery("INSERT", "products", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProduct fetches one product by id.
func (db *DB) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	start := time.Now()

	var p models.Product
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Brand, &p.Stock,
		&p.AverageRating, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt,
	)
	metrics.RecordDBQuery("SELECT", "products", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// UpdateProduct applies the non-nil fields of req to a product.
func (db *DB) UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) error {
	setClauses := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	if req.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *req.Description)
	}
	if req.Price != nil {
		setClauses = append(setClauses, "price = ?")
		args = append(args, *req.Price)
	}
	if req.Category != nil {
		setClauses = append(setClauses, "category = ?")
		args = append(args, *req.Category)
	}
	if req.Brand != nil {
		setClauses = append(setClauses, "brand = ?")
		args = append(args, *req.Brand)
	}
	if req.Stock != nil {
		setClauses = append(setClauses, "stock = ?")
		args = append(args, *req.Stock)
	}
	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE products SET `+strings.Join(setClauses, ", ")+` WHERE id = ?`, args...)
	metrics.RecordDBQuery("UPDATE", "products", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
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

// DeleteProduct removes a product and its ratings.
func (db *DB) DeleteProduct(ctx context.Context, id string) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	metrics.RecordDBQuery("DELETE", "products", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM ratings WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete product ratings: %w", err)
	}
	return nil
}

// ListProducts returns a filtered page of products plus the total count
// matching the filter.
func (db *DB) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]models.Product, int, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Brand != "" {
		where = append(where, "brand = ?")
		args = append(args, filter.Brand)
	}
	if filter.Search != "" {
		where = append(where, "(name ILIKE ? OR description ILIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	start := time.Now()

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+whereClause, args...).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("SELECT", "products", time.Since(start), err)
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	listArgs := append(args, filter.Limit, filter.Offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products`+whereClause+
			` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, listArgs...)
	metrics.RecordDBQuery("SELECT", "products", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer closeQuietly(rows)

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListAllProducts returns the full catalog without pagination, in
// insertion order.
func (db *DB) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	metrics.RecordDBQuery("SELECT", "products", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer closeQuietly(rows)

	return scanProducts(rows)
}

// TopRatedProducts returns up to limit products ranked by average
// rating. This is the recommendation fallback ranking.
func (db *DB) TopRatedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 ORDER BY average_rating DESC, rating_count DESC, id
		 LIMIT ?`, limit)
	metrics.RecordDBQuery("SELECT", "products", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query top rated products: %w", err)
	}
	defer closeQuietly(rows)

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Brand, &p.Stock,
			&p.AverageRating, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}
