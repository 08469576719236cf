// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/stellartours/reservasync/internal/auth"
	"github.com/stellartours/reservasync/internal/cache"
	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/middleware"
	"github.com/stellartours/reservasync/internal/models"
	"github.com/stellartours/reservasync/internal/store"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, response helpers (this file)
//   - handlers_reservations.go: Reservation collection and mutation endpoints
//   - handlers_health.go: Health and status endpoints
type Handler struct {
	store      *store.Store
	cache      cache.Cacher
	jwtManager *auth.JWTManager
	perfMon    *middleware.PerformanceMonitor
	startTime  time.Time
}

// NewHandler creates a new API handler. jwtManager may be nil, which
// disables authentication on protected routes.
func NewHandler(s *store.Store, c cache.Cacher, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		store:      s,
		cache:      c,
		jwtManager: jwtManager,
		perfMon:    middleware.NewPerformanceMonitor(1000),
		startTime:  time.Now(),
	}
}

// PerfMonitor exposes the performance monitor for router wiring.
func (h *Handler) PerfMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// sanitizeLogValue removes control characters from strings to prevent log
// injection: newlines and other control characters could otherwise forge
// log entries.
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

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := generateETag(data)
	w.Header().Set("ETag", etag)

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData wraps a payload in the standard envelope and sends it.
func respondData(w http.ResponseWriter, status int, data interface{}, started time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "ok",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error response. The request context carries the
// request and correlation IDs into the error log.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.CtxErr(r.Context(), err).Str("code", sanitizeLogValue(code)).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondGatewayError maps a gateway failure to an HTTP status and error code.
func respondGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	switch gateway.Classify(err) {
	case gateway.ClassValidation:
		respondError(w, r, http.StatusUnprocessableEntity, "PLATFORM_REJECTED", gateway.UserMessage(err, "La plataforma rechazó la solicitud"), err)
	case gateway.ClassNotFound:
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Reserva no encontrada", err)
	case gateway.ClassCanceled:
		respondError(w, r, http.StatusRequestTimeout, "TIMEOUT", "La solicitud fue cancelada", err)
	default:
		respondError(w, r, http.StatusBadGateway, "PLATFORM_ERROR", gateway.UserMessage(err, "Error de la plataforma"), err)
	}
}

// respondStoreError handles store-level failures, mapping sentinel errors
// before falling back to the gateway classification.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "El identificador de reserva no es válido", err)
	case errors.Is(err, store.ErrEmptyDelta):
		respondError(w, r, http.StatusBadRequest, "EMPTY_DELTA", "La modificación no contiene cambios", err)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Reserva no encontrada", err)
	default:
		respondGatewayError(w, r, err)
	}
}

// pathID extracts and validates the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid reservation id %q", raw)
	}
	return id, nil
}
