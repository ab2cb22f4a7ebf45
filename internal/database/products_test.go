// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/emporium-dev/emporium/internal/models"
)

func TestProductCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := testProduct("Widget", "tools", 9.99, 10)
	if err := db.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct() = %v, want nil", err)
	}

	got, err := db.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct() = %v, want nil", err)
	}
	if got.Name != "Widget" || got.Price != 9.99 || got.Stock != 10 {
		t.Errorf("GetProduct() = %+v, want Widget/9.99/10", got)
	}

	newName := "Premium Widget"
	newPrice := 14.99
	err = db.UpdateProduct(ctx, p.ID, &models.UpdateProductRequest{
		Name:  &newName,
		Price: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateProduct() = %v, want nil", err)
	}

	got, err = db.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct() = %v, want nil", err)
	}
	if got.Name != newName || got.Price != newPrice {
		t.Errorf("after update got %q/%v, want %q/%v", got.Name, got.Price, newName, newPrice)
	}
	if got.Category != "tools" {
		t.Errorf("category = %q, want unchanged %q", got.Category, "tools")
	}

	if err := db.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct() = %v, want nil", err)
	}
	if _, err := db.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct() after delete = %v, want ErrNotFound", err)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	name := "x"
	err := db.UpdateProduct(ctx, "missing", &models.UpdateProductRequest{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct() = %v, want ErrNotFound", err)
	}

	// All-nil update is a no-op, not an error.
	if err := db.UpdateProduct(ctx, "missing", &models.UpdateProductRequest{}); err != nil {
		t.Errorf("UpdateProduct(empty) = %v, want nil", err)
	}
}

func TestListProducts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed := []*models.Product{
		testProduct("Trail Shoes", "apparel", 120, 5),
		testProduct("Road Shoes", "apparel", 110, 5),
		testProduct("Camp Stove", "outdoors", 60, 5),
	}
	seed[0].Brand = "Brooks"
	seed[1].Brand = "Asics"
	for _, p := range seed {
		if err := db.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct() = %v, want nil", err)
		}
	}

	tests := []struct {
		name      string
		filter    models.ProductFilter
		wantCount int
		wantTotal int
	}{
		{"all", models.ProductFilter{Limit: 10}, 3, 3},
		{"category", models.ProductFilter{Category: "apparel", Limit: 10}, 2, 2},
		{"brand", models.ProductFilter{Brand: "Brooks", Limit: 10}, 1, 1},
		{"search", models.ProductFilter{Search: "shoes", Limit: 10}, 2, 2},
		{"paged", models.ProductFilter{Limit: 2}, 2, 3},
		{"offset past end", models.ProductFilter{Limit: 10, Offset: 5}, 0, 3},
		{"no match", models.ProductFilter{Category: "kitchen", Limit: 10}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, total, err := db.ListProducts(ctx, &tt.filter)
			if err != nil {
				t.Fatalf("ListProducts() = %v, want nil", err)
			}
			if len(products) != tt.wantCount {
				t.Errorf("len(products) = %d, want %d", len(products), tt.wantCount)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestTopRatedProducts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	low := testProduct("Low", "misc", 10, 5)
	mid := testProduct("Mid", "misc", 10, 5)
	high := testProduct("High", "misc", 10, 5)
	for _, p := range []*models.Product{low, mid, high} {
		if err := db.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct() = %v, want nil", err)
		}
	}

	user := testUser(models.RoleCustomer)
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() = %v, want nil", err)
	}
	for productID, rating := range map[string]float64{low.ID: 2, mid.ID: 3.5, high.ID: 5} {
		if err := db.UpsertRating(ctx, user.ID, productID, rating); err != nil {
			t.Fatalf("UpsertRating() = %v, want nil", err)
		}
	}

	top, err := db.TopRatedProducts(ctx, 2)
	if err != nil {
		t.Fatalf("TopRatedProducts() = %v, want nil", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].ID != high.ID || top[1].ID != mid.ID {
		t.Errorf("top = [%s, %s], want [%s, %s]", top[0].Name, top[1].Name, "High", "Mid")
	}
}
