// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package models

import "time"

// APIResponse is the envelope for every local API response. Payloads go in
// Data; failures carry a structured Error and a nil Data.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Fields:
//   - Code: Machine-readable error code (e.g., "VALIDATION_ERROR", "NOT_FOUND")
//   - Message: Human-readable description
//   - Details: Optional structured context for the failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PageInfo describes the pagination state of a collection response.
type PageInfo struct {
	Page       int `json:"pagina"`
	PerPage    int `json:"porPagina"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPaginas"`
}

// ReservationList is the payload for collection endpoints: the page of
// reservations plus pagination state.
type ReservationList struct {
	Items []Reservation `json:"reservas"`
	Page  PageInfo      `json:"paginacion"`
}
