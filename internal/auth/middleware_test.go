// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestMiddleware(t *testing.T) (*Middleware, *JWTManager) {
	t.Helper()
	jwtManager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	m := NewMiddleware(jwtManager, 5)
	t.Cleanup(m.Stop)
	return m, jwtManager
}

func TestAuthenticateBearer(t *testing.T) {
	m, jwtManager := newTestMiddleware(t)

	token, _, err := jwtManager.GenerateToken("user-1", "alice", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotClaims *Claims
	handler := m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.Username != "alice" {
		t.Errorf("claims = %+v, want alice", gotClaims)
	}
}

func TestAuthenticateCookie(t *testing.T) {
	m, jwtManager := newTestMiddleware(t)

	token, _, err := jwtManager.GenerateToken("user-1", "alice", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	m, _ := newTestMiddleware(t)

	handler := m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler called for unauthenticated request")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"malformed header", "Token abc"},
		{"invalid token", "Bearer not.a.valid.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	m, jwtManager := newTestMiddleware(t)

	tests := []struct {
		name       string
		role       string
		required   string
		wantStatus int
	}{
		{"exact role", "seller", "seller", http.StatusOK},
		{"admin passes any check", "admin", "seller", http.StatusOK},
		{"customer blocked from seller route", "customer", "seller", http.StatusForbidden},
		{"seller blocked from admin route", "seller", "admin", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := jwtManager.GenerateToken("u", "user", tt.role)
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}

			handler := m.RequireRole(tt.required, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRateLimitLogin(t *testing.T) {
	m, _ := newTestMiddleware(t)

	handler := m.RateLimitLogin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	allowed, limited := 0, 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:12345"
		rec := httptest.NewRecorder()
		handler(rec, req)

		switch rec.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			limited++
		}
	}

	if allowed != 5 {
		t.Errorf("allowed = %d, want 5 (burst)", allowed)
	}
	if limited != 5 {
		t.Errorf("limited = %d, want 5", limited)
	}

	// A different IP has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "198.51.100.9:54321"
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.mu.Lock()
	rl.limiters["10.0.0.1"].lastAccess = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	_, exists := rl.limiters["10.0.0.1"]
	rl.mu.Unlock()
	if exists {
		t.Error("stale limiter entry not removed by cleanup")
	}
}
