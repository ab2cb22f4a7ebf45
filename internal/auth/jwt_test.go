// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emporium-dev/emporium/internal/config"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      "unit-test-secret-0123456789abcdef",
		SessionTimeout: time.Hour,
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTSecret = ""

	if _, err := NewJWTManager(cfg); err == nil {
		t.Fatal("NewJWTManager with empty secret = nil error, want error")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, expiresAt, err := m.GenerateToken("user-1", "alice", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken returned empty token")
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Errorf("expiresAt %v not within session timeout", until)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Role != "customer" {
		t.Errorf("Role = %q, want customer", claims.Role)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "garbage token",
			token: func(t *testing.T) string { return "not.a.token" },
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other, _ := NewJWTManager(&config.SecurityConfig{
					JWTSecret:      "different-secret-9876543210fedcba",
					SessionTimeout: time.Hour,
				})
				tok, _, err := other.GenerateToken("u", "bob", "customer")
				if err != nil {
					t.Fatalf("GenerateToken: %v", err)
				}
				return tok
			},
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				expired, _ := NewJWTManager(&config.SecurityConfig{
					JWTSecret:      testSecurityConfig().JWTSecret,
					SessionTimeout: -time.Hour,
				})
				tok, _, err := expired.GenerateToken("u", "bob", "customer")
				if err != nil {
					t.Fatalf("GenerateToken: %v", err)
				}
				return tok
			},
		},
		{
			name: "unsigned algorithm",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "eve"})
				signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
				if err != nil {
					t.Fatalf("sign none: %v", err)
				}
				return signed
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token(t)); err == nil {
				t.Error("ValidateToken = nil error, want rejection")
			}
		})
	}
}

func TestTokenTampering(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, _, err := m.GenerateToken("user-1", "alice", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	payload := []byte(parts[1])
	payload[0] ^= 1
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := m.ValidateToken(tampered); err == nil {
		t.Error("ValidateToken accepted tampered token")
	}
}
