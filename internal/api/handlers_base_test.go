// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/config"
	"github.com/emporium-dev/emporium/internal/database"
	"github.com/emporium-dev/emporium/internal/models"
	"github.com/emporium-dev/emporium/internal/recommend"
)

// fakeStore is an in-memory Store for handler tests. It returns the
// same sentinel errors as the real database layer.
type fakeStore struct {
	users    map[string]*models.User
	products map[string]*models.Product
	orders   map[string]*models.Order
	ratings  map[string]map[string]float64 // userID -> productID -> rating

	pingErr error
	failAll error
}

func newHandlerFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*models.User),
		products: make(map[string]*models.Product),
		orders:   make(map[string]*models.Order),
		ratings:  make(map[string]map[string]float64),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	if f.failAll != nil {
		return f.failAll
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return database.ErrConflict
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) UpdateUserRole(_ context.Context, id, role string) error {
	if f.failAll != nil {
		return f.failAll
	}
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *models.Product) error {
	if f.failAll != nil {
		return f.failAll
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, id string, req *models.UpdateProductRequest) error {
	if f.failAll != nil {
		return f.failAll
	}
	p, ok := f.products[id]
	if !ok {
		return database.ErrNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	return nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id string) error {
	if f.failAll != nil {
		return f.failAll
	}
	if _, ok := f.products[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) ListProducts(_ context.Context, filter *models.ProductFilter) ([]models.Product, int, error) {
	if f.failAll != nil {
		return nil, 0, f.failAll
	}
	var all []models.Product
	for _, p := range f.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if filter.Offset < len(all) {
		all = all[filter.Offset:]
	} else {
		all = nil
	}
	if len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (f *fakeStore) UpsertRating(_ context.Context, userID, productID string, rating float64) error {
	if f.failAll != nil {
		return f.failAll
	}
	if _, ok := f.products[productID]; !ok {
		return database.ErrNotFound
	}
	if f.ratings[userID] == nil {
		f.ratings[userID] = make(map[string]float64)
	}
	f.ratings[userID][productID] = rating
	return nil
}

func (f *fakeStore) CreateOrder(_ context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	order := &models.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: models.OrderStatusPending,
	}
	for _, item := range req.Items {
		p, ok := f.products[item.ProductID]
		if !ok {
			return nil, database.ErrNotFound
		}
		if p.Stock < item.Quantity {
			return nil, database.ErrInsufficientStock
		}
		p.Stock -= item.Quantity
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
		})
		order.Total += p.Price * float64(item.Quantity)
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ListOrdersForUser(_ context.Context, userID string) ([]models.Order, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrders(_ context.Context, filter *models.OrderFilter) ([]models.Order, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []models.Order
	for _, o := range f.orders {
		if filter != nil && filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) CancelOrder(_ context.Context, id, userID string) (*models.Order, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	o, ok := f.orders[id]
	if !ok || o.UserID != userID {
		return nil, database.ErrNotFound
	}
	if o.Status != models.OrderStatusPending {
		return nil, database.ErrOrderNotCancellable
	}
	o.Status = models.OrderStatusCancelled
	cp := *o
	return &cp, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id, status string) (*models.Order, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	return f.pingErr
}

// fakeRecommender returns canned results.
type fakeRecommender struct {
	result *recommend.Result
	err    error
}

func (f *fakeRecommender) RecommendForUser(_ context.Context, _ string, limit int) (*recommend.Result, error) {
	return f.capped(limit)
}

func (f *fakeRecommender) SimilarProducts(_ context.Context, _ string, limit int) (*recommend.Result, error) {
	return f.capped(limit)
}

func (f *fakeRecommender) capped(limit int) (*recommend.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	if limit > 0 && len(result.Products) > limit {
		result.Products = result.Products[:limit]
	}
	return &result, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func newTestHandler(t *testing.T, store Store, rec Recommender) (*Handler, *auth.JWTManager) {
	t.Helper()
	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() = %v, want nil", err)
	}
	return NewHandler(store, rec, jwtManager, cfg), jwtManager
}

// authedRequest builds a request carrying claims, as the authenticate
// middleware would after token validation.
func authedRequest(t *testing.T, method, target string, body interface{}, user *models.User) *http.Request {
	t.Helper()
	r := jsonRequest(t, method, target, body)
	claims := &auth.Claims{UserID: user.ID, Username: user.Username, Role: user.Role}
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimsContextKey, claims))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// decodeEnvelope decodes the standard response envelope, remarshaling
// Data into out when non-nil.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, out interface{}) *models.APIResponse {
	t.Helper()
	var envelope models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v (body %s)", err, w.Body.String())
	}
	if out != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		if err != nil {
			t.Fatalf("failed to remarshal data: %v", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return &envelope
}

func storedUser(store *fakeStore, role string) *models.User {
	now := time.Now().UTC()
	id := uuid.NewString()
	u := &models.User{
		ID:        id,
		Username:  "user-" + id[:8],
		Email:     "user-" + id[:8] + "@example.com",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	hash, _ := auth.HashPassword("password123")
	u.PasswordHash = hash
	store.users[u.ID] = u
	return u
}

func storedProduct(store *fakeStore, name string, price float64, stock int) *models.Product {
	p := &models.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Category: "misc",
		Price:    price,
		Stock:    stock,
	}
	store.products[p.ID] = p
	return p
}
