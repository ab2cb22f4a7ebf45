// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey struct{}

// requestIDKey stores the request correlation ID in a context.
var requestIDKey = contextKey{}

// WithRequestID returns a context carrying the given request ID.
// The API middleware attaches one to every inbound request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID extracts the request ID from a context, or "" if absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with the context's request ID.
// Use this for any log emitted while serving a request:
//
//	logging.Ctx(ctx).Info().Str("user_id", uid).Msg("order placed")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
