// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/emporium-dev/emporium/internal/database"
	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/middleware"
	"github.com/emporium-dev/emporium/internal/models"
	"github.com/emporium-dev/emporium/internal/validation"
)

// respondSuccess sends a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	})
}

// respondError sends an error envelope. The underlying error is logged
// but never leaked to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends the field-level validation envelope.
func respondValidationError(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: apiErr,
	})
}

// respondJSON writes the envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondStoreError maps database sentinel errors onto API responses.
// Anything unrecognized becomes a 500 with a generic message.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "resource not found", nil)
	case errors.Is(err, database.ErrConflict):
		respondError(w, r, http.StatusConflict, models.ErrCodeConflict, "resource already exists", nil)
	case errors.Is(err, database.ErrInsufficientStock):
		respondError(w, r, http.StatusConflict, models.ErrCodeInsufficientStock, "insufficient stock for requested quantity", nil)
	case errors.Is(err, database.ErrOrderNotCancellable):
		respondError(w, r, http.StatusConflict, models.ErrCodeConflict, "order can no longer be cancelled", nil)
	case errors.Is(err, database.ErrInvalidStatusTransition):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "invalid order status transition", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "internal server error", err)
	}
}

// decodeRequest decodes a JSON body into v and validates it. On
// failure it writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "invalid request body", err)
		return false
	}

	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		respondValidationError(w, r, &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// sanitizeLogValue replaces control characters so request-derived
// strings cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
