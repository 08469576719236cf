// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/middleware"
)

// healthStatus is the payload for the full health endpoint.
type healthStatus struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Reservations  int                        `json:"reservas"`
	InFlightOps   int                        `json:"operaciones_en_vuelo"`
	LastError     string                     `json:"ultimo_error,omitempty"`
	Cache         cacheSummary               `json:"cache"`
	Endpoints     []middleware.EndpointStats `json:"endpoints,omitempty"`
}

type cacheSummary struct {
	Keys    int64   `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// HealthLive handles GET /api/v1/health/live. Always returns 200 while the
// process is serving; used as a liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready. Reports 503 until the first
// successful collection load, so orchestration does not route traffic to an
// agent with no state.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.store.Len() == 0 && h.store.LastError() != nil {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "La colección de reservas aún no está cargada", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"}, started)
}

// Metrics handles GET /metrics. The uptime gauge is refreshed per scrape
// so it is always current without a background ticker.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.RecordUptime(h.startTime)
	promhttp.Handler().ServeHTTP(w, r)
}

// Health handles GET /api/v1/health with a full status report.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	stats := h.cache.GetStats()
	payload := healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Reservations:  h.store.Len(),
		InFlightOps:   h.store.InFlight(),
		Cache: cacheSummary{
			Keys:    stats.TotalKeys,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			HitRate: h.cache.HitRate(),
		},
		Endpoints: h.perfMon.GetStats(),
	}
	if err := h.store.LastError(); err != nil {
		payload.Status = "degraded"
		payload.LastError = err.Error()
	}

	respondData(w, http.StatusOK, payload, started)
}
