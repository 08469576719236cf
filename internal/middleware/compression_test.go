// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const listPayload = `{"status":"ok","data":{"reservas":[{"id":1,"destino":"Europa"},{"id":2,"destino":"Titán"}]}}`

func TestCompressionGzipsAcceptingClients(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, listPayload)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservas", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", got)
	}
	if !strings.Contains(rec.Header().Get("Vary"), "Accept-Encoding") {
		t.Error("expected Vary: Accept-Encoding")
	}

	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("body is not valid gzip: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	if string(body) != listPayload {
		t.Errorf("round-trip mismatch: %q", body)
	}
}

func TestCompressionSkipsNonAcceptingClients(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, listPayload)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reservas", nil))

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("expected identity encoding, got %q", got)
	}
	if rec.Body.String() != listPayload {
		t.Errorf("body must pass through untouched, got %q", rec.Body.String())
	}
}

func TestCompressionSkipsWebSocketUpgrade(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws/eventos", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("upgrade request must not be compressed, got %q", got)
	}
}

func TestCompressionPreservesStatusCode(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"NOT_FOUND"}}`)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservas/999", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 through compression, got %d", rec.Code)
	}
}

func TestCompressionDropsContentLength(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, listPayload)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservas", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Length", "999")
	handler(rec, req)

	if got := rec.Header().Get("Content-Length"); got != "" {
		t.Errorf("stale Content-Length must be dropped, got %q", got)
	}
}
