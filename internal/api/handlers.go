// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

// Package api provides the HTTP surface: chi routing, request
// decoding, and the JSON response envelope.
package api

import (
	"context"
	"time"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/config"
	"github.com/emporium-dev/emporium/internal/models"
	"github.com/emporium-dev/emporium/internal/recommend"
)

// UserStore is the user persistence surface the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
}

// ProductStore is the catalog persistence surface.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]models.Product, int, error)
	UpsertRating(ctx context.Context, userID, productID string, rating float64) error
}

// OrderStore is the order persistence surface.
type OrderStore interface {
	CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context, filter *models.OrderFilter) ([]models.Order, error)
	CancelOrder(ctx context.Context, id, userID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error)
}

// Store combines the persistence surfaces plus liveness probing.
// *database.DB satisfies it; tests use fakes.
type Store interface {
	UserStore
	ProductStore
	OrderStore
	Ping(ctx context.Context) error
}

// Recommender answers recommendation queries.
type Recommender interface {
	RecommendForUser(ctx context.Context, userID string, limit int) (*recommend.Result, error)
	SimilarProducts(ctx context.Context, productID string, limit int) (*recommend.Result, error)
}

// Handler carries the dependencies shared by all endpoint methods.
// Endpoint methods are split across files:
//   - handlers_auth.go: register, login, me
//   - handlers_products.go: catalog CRUD and rating
//   - handlers_orders.go: order lifecycle
//   - handlers_recommend.go: recommendation queries
//   - handlers_health.go: liveness and readiness
type Handler struct {
	store       Store
	recommender Recommender
	jwtManager  *auth.JWTManager
	config      *config.Config
	startTime   time.Time
}

// NewHandler creates the API handler.
func NewHandler(store Store, recommender Recommender, jwtManager *auth.JWTManager, cfg *config.Config) *Handler {
	return &Handler{
		store:       store,
		recommender: recommender,
		jwtManager:  jwtManager,
		config:      cfg,
		startTime:   time.Now(),
	}
}
