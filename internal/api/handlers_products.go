// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/models"
)

// ListProducts handles GET /api/v1/products with pagination and
// category/brand/search filters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if limit <= 0 {
		limit = h.config.API.DefaultPageSize
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}
	offset := getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	filter := &models.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Brand:    r.URL.Query().Get("brand"),
		Search:   r.URL.Query().Get("search"),
		Limit:    limit,
		Offset:   offset,
	}

	products, total, err := h.store.ListProducts(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	respondSuccess(w, r, http.StatusOK, models.ProductsResponse{
		Products: products,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products (seller or admin).
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Brand:       req.Brand,
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("product_id", product.ID).Msg("product created")
	respondSuccess(w, r, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id} (seller or admin).
// Absent fields are left unchanged.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.store.UpdateProduct(r.Context(), id, &req); err != nil {
		respondStoreError(w, r, err)
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id} (seller or admin).
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("product_id", id).Msg("product deleted")
	respondSuccess(w, r, http.StatusOK, map[string]string{"id": id})
}

// RateProduct handles POST /api/v1/products/{id}/rate. Rating the same
// product again replaces the previous rating.
func (h *Handler) RateProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	var req models.RateProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	productID := chi.URLParam(r, "id")
	if err := h.store.UpsertRating(r.Context(), claims.UserID, productID, req.Rating); err != nil {
		respondStoreError(w, r, err)
		return
	}

	product, err := h.store.GetProduct(r.Context(), productID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, product)
}
