// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/stellartours/reservasync/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the shared middleware package works
// with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler *Handler
	chimw   *ChiMiddleware
}

// NewRouter creates a router for the given handler and middleware factory.
func NewRouter(handler *Handler, chimw *ChiMiddleware) *Router {
	if chimw == nil {
		chimw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chimw: chimw}
}

// Setup configures all HTTP routes using Chi.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chiMiddleware(middleware.RequestID)) // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)                // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)             // Recover from panics
	r.Use(router.chimw.CORS())                 // CORS must be global to handle OPTIONS preflight

	// Health endpoints: permissive rate limiting so monitoring can poll
	// frequently without consuming the API budget.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chimw.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Prometheus metrics for scraping. Not rate limited: scrapers are
	// trusted local infrastructure.
	r.Get("/metrics", router.handler.Metrics)

	// Reservation endpoints. All data routes share the configured rate
	// limit, request instrumentation, and authentication.
	r.Route("/api/v1/reservas", func(r chi.Router) {
		r.Use(router.chimw.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(router.handler.PerfMonitor().Middleware)
		r.Use(router.handler.Authenticate)

		r.Get("/", router.handler.ListReservations)
		r.Post("/", router.handler.CreateReservation)
		r.Get("/proxima", router.handler.NextReservation)
		r.Get("/{id}", router.handler.GetReservation)
		r.Patch("/{id}", router.handler.ModifyReservation)
		r.Post("/{id}/cancelar", router.handler.CancelReservation)
	})

	// Manual reconciliation trigger.
	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(router.chimw.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.Authenticate)

		r.Post("/", router.handler.SyncNow)
	})

	return r
}
