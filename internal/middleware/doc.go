// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package middleware provides the HTTP instrumentation layer for the agent's
local API: gzip compression, latency tracking, request ID propagation, and
Prometheus metrics.

The middleware operates on http.HandlerFunc; the api package adapts it for
Chi's r.Use(). Data routes carry the full stack, health routes only the
parts monitoring needs.

# Route normalization

Paths containing reservation IDs are normalized before they become metric
labels or latency buckets: "/api/v1/reservas/4812" is recorded as
"/api/v1/reservas/{id}". Without this every reservation would mint its own
Prometheus series.

# Components

  - Compression: pooled gzip writers, skips WebSocket upgrades
  - PerformanceMonitor: fixed-size sample ring with per-route p50/p95/p99,
    surfaced through the health report
  - RequestID: X-Request-ID passthrough or generation, wired into the
    logging context with a fresh correlation ID
  - PrometheusMetrics: request counter, duration histogram, and
    active-request gauge from internal/metrics

# Usage

	perfMon := middleware.NewPerformanceMonitor(1000)
	handler := middleware.RequestID(
	    middleware.PrometheusMetrics(
	        middleware.Compression(listReservations)))

All components are safe for concurrent use.

See Also:

  - internal/api: route tree that assembles the stack
  - internal/metrics: Prometheus collector definitions
  - internal/logging: request/correlation ID context helpers
*/
package middleware
