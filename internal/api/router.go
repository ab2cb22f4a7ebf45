// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emporium-dev/emporium/internal/auth"
	"github.com/emporium-dev/emporium/internal/authz"
	"github.com/emporium-dev/emporium/internal/config"
	"github.com/emporium-dev/emporium/internal/middleware"
)

// Router wires handlers to routes with the middleware stack.
type Router struct {
	handler *Handler
	auth    *auth.Middleware
	authz   *authz.Middleware
	config  *config.Config
}

// NewRouter creates the router.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler: handler,
		auth:    authMW,
		authz:   authzMW,
		config:  cfg,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.config.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !router.config.Security.RateLimitDisabled {
		r.Use(httprate.LimitByIP(router.config.Security.RateLimitReqs, router.config.Security.RateLimitWindow))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Post("/register", router.handler.Register)
		// Login carries its own per-IP limiter on top of the global one.
		r.With(chiMiddleware(router.auth.RateLimitLogin)).Post("/login", router.handler.Login)
		r.With(chiMiddleware(router.auth.Authenticate)).Get("/me", router.handler.Me)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		// Catalog browsing is public.
		r.Get("/", router.handler.ListProducts)
		r.Get("/{id}", router.handler.GetProduct)

		// Writes require authentication plus a permitted role.
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.auth.Authenticate))
			r.Use(chiMiddleware(router.authz.AuthorizeRequest))
			r.Post("/", router.handler.CreateProduct)
			r.Put("/{id}", router.handler.UpdateProduct)
			r.Delete("/{id}", router.handler.DeleteProduct)
			r.Post("/{id}/rate", router.handler.RateProduct)
		})
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.auth.Authenticate))
		r.Use(chiMiddleware(router.authz.AuthorizeRequest))

		r.Post("/", router.handler.CreateOrder)
		r.Get("/", router.handler.MyOrders)
		r.Get("/{id}", router.handler.GetOrder)
		r.Post("/{id}/cancel", router.handler.CancelOrder)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.auth.Authenticate))
		r.Use(chiMiddleware(router.authz.AuthorizeRequest))

		r.Get("/orders", router.handler.AdminListOrders)
		r.Put("/orders/{id}/status", router.handler.AdminUpdateOrderStatus)
		r.Put("/users/{id}/role", router.handler.AdminUpdateUserRole)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/similar/{id}", router.handler.SimilarProducts)
		r.With(
			chiMiddleware(router.auth.Authenticate),
			chiMiddleware(router.authz.AuthorizeRequest),
		).Get("/for-you", router.handler.RecommendationsForYou)
	})

	return r
}

// NewServer builds the http.Server around the configured router.
func NewServer(router *Router, cfg *config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Timeout,
		WriteTimeout:      cfg.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * cfg.Timeout,
	}
}
