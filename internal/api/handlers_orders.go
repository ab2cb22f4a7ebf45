// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/models"
)

// CreateOrder handles POST /api/v1/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	var req models.CreateOrderRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	order, err := h.store.CreateOrder(r.Context(), claims.UserID, &req)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("order_id", order.ID).Str("user_id", claims.UserID).Float64("total", order.Total).Msg("order placed")
	respondSuccess(w, r, http.StatusCreated, order)
}

// MyOrders handles GET /api/v1/orders, listing the caller's orders.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	orders, err := h.store.ListOrdersForUser(r.Context(), claims.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondSuccess(w, r, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/{id}. Customers see only their
// own orders; admins see any.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	order, err := h.store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	if order.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		// Hide the order's existence from other customers.
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "resource not found", nil)
		return
	}

	respondSuccess(w, r, http.StatusOK, order)
}

// CancelOrder handles POST /api/v1/orders/{id}/cancel. Only pending
// orders can be cancelled; the reserved stock is restored.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	order, err := h.store.CancelOrder(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("order_id", order.ID).Msg("order cancelled")
	respondSuccess(w, r, http.StatusOK, order)
}

// AdminListOrders handles GET /api/v1/admin/orders with an optional
// status filter.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	filter := &models.OrderFilter{
		Status: r.URL.Query().Get("status"),
		UserID: r.URL.Query().Get("user_id"),
	}
	if filter.Status != "" && !models.ValidOrderStatus(filter.Status) {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "unknown order status", nil)
		return
	}

	orders, err := h.store.ListOrders(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondSuccess(w, r, http.StatusOK, orders)
}

// AdminUpdateOrderStatus handles PUT /api/v1/admin/orders/{id}/status.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderStatusRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("order_id", order.ID).Str("status", order.Status).Msg("order status updated")
	respondSuccess(w, r, http.StatusOK, order)
}
