// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package models

import "time"

// Order statuses. Transitions: pending -> paid -> shipped -> delivered,
// and pending -> cancelled (customer cancel restores stock).
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether status is one of the known statuses.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a placed order with its line items. Total is computed from
// the item prices at creation time and never recomputed afterwards.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one product line within an order. Price is the unit
// price captured when the order was placed.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// CreateOrderRequest is the payload for POST /api/v1/orders.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// CreateOrderItem is one requested line item.
type CreateOrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateOrderStatusRequest is the payload for PUT /api/v1/admin/orders/{id}/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status string
	UserID string
}
