// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"net/http"
	"time"

	"github.com/emporium-dev/emporium/internal/models"
)

// HealthLive handles GET /api/v1/health/live. It only proves the
// process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the
// database answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeInternal, "database not ready", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// Health handles GET /api/v1/health with uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondSuccess(w, r, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
