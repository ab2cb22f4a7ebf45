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
	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

// Register handles POST /api/v1/auth/register. New accounts always get
// the customer role; promotions go through the admin surface.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeRequest(w, r, &req) {
		metrics.RecordAuthAttempt("register", false)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		metrics.RecordAuthAttempt("register", false)
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "internal server error", err)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		metrics.RecordAuthAttempt("register", false)
		respondStoreError(w, r, err)
		return
	}

	metrics.RecordAuthAttempt("register", true)
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("user registered")
	respondSuccess(w, r, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login. A valid credential pair gets
// a signed JWT, returned in the body and as an httpOnly cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeRequest(w, r, &req) {
		metrics.RecordAuthAttempt("login", false)
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown user and wrong password.
		metrics.RecordAuthAttempt("login", false)
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "invalid username or password", nil)
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		metrics.RecordAuthAttempt("login", false)
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "internal server error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.Server.Environment == "production",
	})

	metrics.RecordAuthAttempt("login", true)
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("user logged in")
	respondSuccess(w, r, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
	})
}

// Me handles GET /api/v1/auth/me, returning the authenticated profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthentication, "authentication required", nil)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, user)
}

// AdminUpdateUserRole handles PUT /api/v1/admin/users/{id}/role. This is
// the only way an account moves off the customer role.
func (h *Handler) AdminUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRoleRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		respondStoreError(w, r, err)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", id).Str("role", req.Role).Msg("user role updated")
	respondSuccess(w, r, http.StatusOK, user)
}
