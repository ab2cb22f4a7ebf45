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

	"github.com/google/uuid"

	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

// Allowed order status transitions. Cancellation is handled separately
// by CancelOrder because it also restores stock.
var statusTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid},
	models.OrderStatusPaid:    {models.OrderStatusShipped},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

// CreateOrder places an order in a single transaction: each line item
// is validated against current stock, stock is decremented, and the
// total is computed from prices captured at order time. Any shortfall
// aborts the whole order with ErrInsufficientStock.
func (db *DB) CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error) {
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	now := time.Now().UTC()
	order := &models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.OrderStatusPending,
		Items:     make([]models.OrderItem, 0, len(req.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, item := range req.Items {
		var name string
		var price float64
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT name, price, stock FROM products WHERE id = ?`, item.ProductID,
		).Scan(&name, &price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
		}
		if stock < item.Quantity {
			return nil, fmt.Errorf("product %s has %d units: %w", item.ProductID, stock, ErrInsufficientStock)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ?`,
			item.Quantity, now, item.ProductID,
		); err != nil {
			return nil, fmt.Errorf("failed to reserve stock for %s: %w", item.ProductID, err)
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      name,
			Price:     price,
			Quantity:  item.Quantity,
		})
		order.Total += price * float64(item.Quantity)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Status, order.Total, order.CreatedAt, order.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, price, quantity)
			 VALUES (?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Name, item.Price, item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	err = tx.Commit()
	metrics.RecordDBQuery("INSERT", "orders", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	metrics.OrdersTotal.WithLabelValues("created").Inc()
	return order, nil
}

// GetOrder fetches an order with its line items.
func (db *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	start := time.Now()

	var o models.Order
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, status, total, created_at, updated_at
		 FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	metrics.RecordDBQuery("SELECT", "orders", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := db.orderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (db *DB) orderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT product_id, name, price, quantity
		 FROM order_items WHERE order_id = ? ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer closeQuietly(rows)

	items := make([]models.OrderItem, 0, 4)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return items, nil
}

// ListOrdersForUser returns a user's orders, newest first.
func (db *DB) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return db.listOrders(ctx,
		`SELECT id, user_id, status, total, created_at, updated_at
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
}

// ListOrders returns all orders, optionally filtered by status. Admin
// only.
func (db *DB) ListOrders(ctx context.Context, filter *models.OrderFilter) ([]models.Order, error) {
	query := `SELECT id, user_id, status, total, created_at, updated_at FROM orders`
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter != nil && filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter != nil && filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	return db.listOrders(ctx, query, args...)
}

func (db *DB) listOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "orders", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer closeQuietly(rows)

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for i := range orders {
		items, err := db.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// CancelOrder cancels a pending order owned by userID and restores the
// reserved stock. Orders past pending return ErrOrderNotCancellable.
func (db *DB) CancelOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	var o models.Order
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, status, total, created_at, updated_at
		 FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o.UserID != userID {
		// Do not reveal whether the order exists to other users.
		return nil, ErrNotFound
	}
	if o.Status != models.OrderStatusPending {
		return nil, ErrOrderNotCancellable
	}

	itemRows, err := tx.QueryContext(ctx,
		`SELECT product_id, name, price, quantity
		 FROM order_items WHERE order_id = ? ORDER BY product_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	items := make([]models.OrderItem, 0, 4)
	for itemRows.Next() {
		var it models.OrderItem
		if err := itemRows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			closeQuietly(itemRows)
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := itemRows.Err(); err != nil {
		closeQuietly(itemRows)
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	closeQuietly(itemRows)

	now := time.Now().UTC()
	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
			it.Quantity, now, it.ProductID,
		); err != nil {
			return nil, fmt.Errorf("failed to restore stock for %s: %w", it.ProductID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		models.OrderStatusCancelled, now, id,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	err = tx.Commit()
	metrics.RecordDBQuery("UPDATE", "orders", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	metrics.OrdersTotal.WithLabelValues("cancelled").Inc()
	o.Status = models.OrderStatusCancelled
	o.UpdatedAt = now
	o.Items = items
	return &o, nil
}

// UpdateOrderStatus advances an order along the fulfilment lifecycle.
// Only forward single-step transitions are allowed.
func (db *DB) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidStatusTransition)
	}

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order status: %w", err)
	}

	if !transitionAllowed(current, status) {
		return nil, fmt.Errorf("%s -> %s: %w", current, status, ErrInvalidStatusTransition)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	err = tx.Commit()
	metrics.RecordDBQuery("UPDATE", "orders", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	metrics.OrdersTotal.WithLabelValues("status_" + status).Inc()
	return db.GetOrder(ctx, id)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
