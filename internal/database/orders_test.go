// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/emporium-dev/emporium/internal/models"
)

func seedOrderFixtures(t *testing.T, db *DB) (*models.User, *models.Product, *models.Product) {
	t.Helper()
	ctx := context.Background()

	user := testUser(models.RoleCustomer)
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() = %v, want nil", err)
	}

	keyboard := testProduct("Keyboard", "electronics", 100, 10)
	mouse := testProduct("Mouse", "electronics", 50, 3)
	for _, p := range []*models.Product{keyboard, mouse} {
		if err := db.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct() = %v, want nil", err)
		}
	}
	return user, keyboard, mouse
}

func TestCreateOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, keyboard, mouse := seedOrderFixtures(t, db)

	order, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{
			{ProductID: keyboard.ID, Quantity: 2},
			{ProductID: mouse.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() = %v, want nil", err)
	}

	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %q, want %q", order.Status, models.OrderStatusPending)
	}
	if math.Abs(order.Total-250) > 1e-9 {
		t.Errorf("total = %v, want 250", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(order.Items))
	}

	// Stock was decremented atomically with the order.
	kb, err := db.GetProduct(ctx, keyboard.ID)
	if err != nil {
		t.Fatalf("GetProduct() = %v, want nil", err)
	}
	if kb.Stock != 8 {
		t.Errorf("keyboard stock = %d, want 8", kb.Stock)
	}

	fetched, err := db.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder() = %v, want nil", err)
	}
	if fetched.UserID != user.ID || len(fetched.Items) != 2 {
		t.Errorf("GetOrder() = %+v, want order for %s with 2 items", fetched, user.ID)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, keyboard, mouse := seedOrderFixtures(t, db)

	_, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{
			{ProductID: keyboard.ID, Quantity: 1},
			{ProductID: mouse.ID, Quantity: 4},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("CreateOrder() = %v, want ErrInsufficientStock", err)
	}

	// The whole order rolled back, including the keyboard line.
	kb, err := db.GetProduct(ctx, keyboard.ID)
	if err != nil {
		t.Fatalf("GetProduct() = %v, want nil", err)
	}
	if kb.Stock != 10 {
		t.Errorf("keyboard stock = %d, want 10 after rollback", kb.Stock)
	}

	orders, err := db.ListOrdersForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListOrdersForUser() = %v, want nil", err)
	}
	if len(orders) != 0 {
		t.Errorf("len(orders) = %d, want 0", len(orders))
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, _, _ := seedOrderFixtures(t, db)

	_, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{{ProductID: "missing", Quantity: 1}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateOrder() = %v, want ErrNotFound", err)
	}
}

func TestCancelOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, keyboard, _ := seedOrderFixtures(t, db)

	order, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{{ProductID: keyboard.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() = %v, want nil", err)
	}

	cancelled, err := db.CancelOrder(ctx, order.ID, user.ID)
	if err != nil {
		t.Fatalf("CancelOrder() = %v, want nil", err)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Errorf("status = %q, want %q", cancelled.Status, models.OrderStatusCancelled)
	}

	kb, err := db.GetProduct(ctx, keyboard.ID)
	if err != nil {
		t.Fatalf("GetProduct() = %v, want nil", err)
	}
	if kb.Stock != 10 {
		t.Errorf("keyboard stock = %d, want 10 after cancel", kb.Stock)
	}
}

func TestCancelOrderGuards(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, keyboard, _ := seedOrderFixtures(t, db)
	other := testUser(models.RoleCustomer)
	if err := db.CreateUser(ctx, other); err != nil {
		t.Fatalf("CreateUser() = %v, want nil", err)
	}

	order, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{{ProductID: keyboard.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() = %v, want nil", err)
	}

	// Another customer cannot see or cancel this order.
	if _, err := db.CancelOrder(ctx, order.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("CancelOrder(other user) = %v, want ErrNotFound", err)
	}

	if _, err := db.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPaid); err != nil {
		t.Fatalf("UpdateOrderStatus() = %v, want nil", err)
	}
	if _, err := db.CancelOrder(ctx, order.ID, user.ID); !errors.Is(err, ErrOrderNotCancellable) {
		t.Errorf("CancelOrder(paid) = %v, want ErrOrderNotCancellable", err)
	}

	if _, err := db.CancelOrder(ctx, "missing", user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("CancelOrder(missing) = %v, want ErrNotFound", err)
	}
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, keyboard, _ := seedOrderFixtures(t, db)

	newOrder := func(t *testing.T) *models.Order {
		t.Helper()
		order, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
			Items: []models.CreateOrderItem{{ProductID: keyboard.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("CreateOrder() = %v, want nil", err)
		}
		return order
	}

	t.Run("full lifecycle", func(t *testing.T) {
		order := newOrder(t)
		for _, status := range []string{models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusDelivered} {
			updated, err := db.UpdateOrderStatus(ctx, order.ID, status)
			if err != nil {
				t.Fatalf("UpdateOrderStatus(%s) = %v, want nil", status, err)
			}
			if updated.Status != status {
				t.Errorf("status = %q, want %q", updated.Status, status)
			}
		}
	})

	t.Run("skip ahead rejected", func(t *testing.T) {
		order := newOrder(t)
		_, err := db.UpdateOrderStatus(ctx, order.ID, models.OrderStatusShipped)
		if !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("UpdateOrderStatus(pending->shipped) = %v, want ErrInvalidStatusTransition", err)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		order := newOrder(t)
		_, err := db.UpdateOrderStatus(ctx, order.ID, "refunded")
		if !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("UpdateOrderStatus(refunded) = %v, want ErrInvalidStatusTransition", err)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := db.UpdateOrderStatus(ctx, "missing", models.OrderStatusPaid)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateOrderStatus(missing) = %v, want ErrNotFound", err)
		}
	})
}

func TestListOrders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user, keyboard, _ := seedOrderFixtures(t, db)

	first, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{{ProductID: keyboard.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() = %v, want nil", err)
	}
	if _, err := db.CreateOrder(ctx, user.ID, &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{{ProductID: keyboard.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder() = %v, want nil", err)
	}
	if _, err := db.UpdateOrderStatus(ctx, first.ID, models.OrderStatusPaid); err != nil {
		t.Fatalf("UpdateOrderStatus() = %v, want nil", err)
	}

	mine, err := db.ListOrdersForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListOrdersForUser() = %v, want nil", err)
	}
	if len(mine) != 2 {
		t.Errorf("len(ListOrdersForUser()) = %d, want 2", len(mine))
	}
	for _, o := range mine {
		if len(o.Items) == 0 {
			t.Errorf("order %s has no items", o.ID)
		}
	}

	paid, err := db.ListOrders(ctx, &models.OrderFilter{Status: models.OrderStatusPaid})
	if err != nil {
		t.Fatalf("ListOrders(paid) = %v, want nil", err)
	}
	if len(paid) != 1 || paid[0].ID != first.ID {
		t.Errorf("ListOrders(paid) = %d orders, want just %s", len(paid), first.ID)
	}

	all, err := db.ListOrders(ctx, nil)
	if err != nil {
		t.Fatalf("ListOrders(nil) = %v, want nil", err)
	}
	if len(all) != 2 {
		t.Errorf("len(ListOrders(nil)) = %d, want 2", len(all))
	}
}
