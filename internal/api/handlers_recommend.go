// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/models"
)

// RecommendationsForYou handles GET /api/v1/recommendations/for-you.
// The result's source field tells callers whether the ranking is
// personalized or the top-rated fallback.
func (h *Handler) RecommendationsForYou(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	limit := getIntParam(r, "limit", 0)
	result, err := h.recommender.RecommendForUser(r.Context(), claims.UserID, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "internal server error", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, result)
}

// SimilarProducts handles GET /api/v1/recommendations/similar/{id}.
// Public: similarity needs no identity, only the catalog's ratings.
func (h *Handler) SimilarProducts(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 0)
	result, err := h.recommender.SimilarProducts(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "internal server error", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, result)
}
