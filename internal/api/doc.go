// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package api exposes the agent's local HTTP interface using the Chi router.
//
// The API is the control surface for operators and local tooling. It serves
// the reservation collection the store maintains, accepts mutations that the
// store applies optimistically, and reports agent health.
//
// # Routes
//
//	GET  /api/v1/health            Full status report
//	GET  /api/v1/health/live       Liveness probe
//	GET  /api/v1/health/ready      Readiness probe (503 until first load)
//	GET  /metrics                  Prometheus metrics
//	GET  /api/v1/reservas          Paginated, filtered collection
//	POST /api/v1/reservas          Create a reservation
//	GET  /api/v1/reservas/proxima  Earliest upcoming reservation
//	GET  /api/v1/reservas/{id}     Single reservation
//	PATCH /api/v1/reservas/{id}    Partial modification (optimistic)
//	POST /api/v1/reservas/{id}/cancelar  Cancellation (optimistic)
//	POST /api/v1/sync              Manual full reconciliation
//
// # Middleware stack
//
// Every route carries request ID generation, real-IP extraction, panic
// recovery, and CORS. Data routes add IP-keyed rate limiting (go-chi/httprate),
// Prometheus instrumentation, gzip compression, latency tracking, and JWT
// bearer authentication. Health routes use a separate, permissive rate
// budget so monitoring never competes with API consumers.
//
// # Responses
//
// All responses share the APIResponse envelope: a status string, the
// payload, metadata (timestamp, query time), and a structured error when the
// request failed. Gateway failures map onto HTTP statuses by error class:
// validation rejections become 422, missing reservations 404, platform
// outages 502.
package api
