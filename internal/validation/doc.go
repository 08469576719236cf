// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton and translates field errors into the Spanish messages the local
// API returns under the VALIDATION_ERROR code.
//
// # Quick Start
//
//	type CreateReservationRequest struct {
//	    DestinationID int64  `validate:"required,gt=0"`
//	    ShipID        int64  `validate:"required,gt=0"`
//	    TravelDate    string `validate:"required,datetime=2006-01-02"`
//	    Passengers    int    `validate:"min=1,max=12"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Common Tags
//
//   - required, min, max: presence and bounds (characters for strings,
//     magnitude for numbers)
//   - gt, gte, lt, lte: numeric comparisons
//   - oneof=pendiente confirmada cancelada completada: reservation states
//   - datetime=2006-01-02: travel-date layout
//   - email, url: format checks
//
// Note: min/max on time.Duration fields compare raw nanoseconds, which is
// unreadable in tags. Duration bounds live in config's own validation
// instead.
//
// # Error Shape
//
// A single failing field keeps its details flat:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "TravelDate debe ser una fecha válida",
//	    "details": {"field": "TravelDate", "tag": "datetime", "value": "mañana"}
//	}
//
// Multiple failures list every field under details.fields and join the
// messages with "; ".
//
// # Translation
//
// Messages are generated per tag:
//
//	required   -> "DestinationID es obligatorio"
//	datetime   -> "TravelDate debe ser una fecha válida"
//	min=1      -> "Passengers debe ser al menos 1"
//	max=12     -> "Passengers debe ser como máximo 12"
//	oneof=...  -> "Status debe ser uno de: pendiente confirmada ..."
//
// The validator caches struct metadata, so the singleton serves every
// request handler and the config loader concurrently.
//
// # See Also
//
//   - internal/api: request handlers that surface these errors
//   - internal/config: configuration validation at load time
package validation
