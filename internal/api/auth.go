// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package api

import (
	"net/http"
	"strings"
)

// Authenticate returns middleware enforcing a valid bearer token on every
// request. When the handler has no JWT manager configured, authentication
// is disabled and requests pass through.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.jwtManager == nil {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Se requiere autenticación", nil)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Formato de autorización no válido", nil)
			return
		}

		if _, err := h.jwtManager.ValidateToken(token); err != nil {
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Token no válido o caducado", err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
