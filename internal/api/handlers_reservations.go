// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/stellartours/reservasync/internal/models"
	"github.com/stellartours/reservasync/internal/validation"
)

// dateLayout is the wire format for date query parameters.
const dateLayout = "2006-01-02"

// ListReservations handles GET /api/v1/reservas.
//
// Query parameters:
//   - pagina: page number (default 1)
//   - estado: filter by status (pendiente, confirmada, cancelada, completada)
//   - desde, hasta: effective-date bounds, YYYY-MM-DD
//   - destino, nave: filter by destination or ship ID
//
// Filter parameters replace the store's active filters for this and
// subsequent requests; an unfiltered request keeps the previous filters.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_FILTER", err.Error(), err)
		return
	}
	if !filter.IsZero() {
		h.store.SetFilters(filter)
	}

	page := 1
	if raw := r.URL.Query().Get("pagina"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			respondError(w, r, http.StatusBadRequest, "INVALID_PAGE", "pagina must be a positive integer", nil)
			return
		}
	}

	items, err := h.store.LoadPage(r.Context(), page)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, models.ReservationList{
		Items: items,
		Page: models.PageInfo{
			Page:       page,
			PerPage:    len(items),
			Total:      h.store.Total(),
			TotalPages: h.store.TotalPages(),
		},
	}, started)
}

// GetReservation handles GET /api/v1/reservas/{id}.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "El identificador de reserva no es válido", err)
		return
	}

	rec, err := h.store.LoadOne(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec, started)
}

// NextReservation handles GET /api/v1/reservas/proxima: the earliest
// upcoming non-cancelled reservation.
func (h *Handler) NextReservation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if _, err := h.store.LoadAll(r.Context(), false); err != nil {
		respondStoreError(w, r, err)
		return
	}

	rec, ok := h.store.Next()
	if !ok {
		respondError(w, r, http.StatusNotFound, "NO_UPCOMING", "No hay reservas próximas", nil)
		return
	}
	respondData(w, http.StatusOK, rec, started)
}

// CreateReservation handles POST /api/v1/reservas.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "El cuerpo de la solicitud no es válido", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	rec, err := h.store.Create(r.Context(), req)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, rec, started)
}

// cancelBody is the payload for the cancel endpoint.
type cancelBody struct {
	Reason string `json:"motivo"`
}

// CancelReservation handles POST /api/v1/reservas/{id}/cancelar.
// The cancellation is applied optimistically; the response carries the
// resolved record after the platform confirms or rejects it.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "El identificador de reserva no es válido", err)
		return
	}

	var body cancelBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "El cuerpo de la solicitud no es válido", err)
			return
		}
	}

	rec, err := h.store.Cancel(r.Context(), id, body.Reason)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec, started)
}

// ModifyReservation handles PATCH /api/v1/reservas/{id}. The body is a
// partial update; absent fields are left untouched.
func (h *Handler) ModifyReservation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "El identificador de reserva no es válido", err)
		return
	}

	var delta models.Delta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "El cuerpo de la solicitud no es válido", err)
		return
	}
	if delta.Status != nil && !delta.Status.Valid() {
		respondError(w, r, http.StatusBadRequest, "INVALID_STATUS", "Estado de reserva desconocido", nil)
		return
	}

	rec, err := h.store.Modify(r.Context(), id, delta)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec, started)
}

// SyncNow handles POST /api/v1/sync: an operator-triggered full
// reconciliation pass outside the periodic schedule.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := h.store.FullSync(r.Context()); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"reservas": h.store.Len(),
	}, started)
}

// parseFilter builds a reservation filter from query parameters.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var f models.Filter

	if raw := q.Get("estado"); raw != "" {
		status := models.Status(raw)
		if !status.Valid() {
			return f, errInvalidFilterValue("estado", raw)
		}
		f.Status = status
	}
	if raw := q.Get("desde"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, errInvalidFilterValue("desde", raw)
		}
		f.From = t
	}
	if raw := q.Get("hasta"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, errInvalidFilterValue("hasta", raw)
		}
		f.To = t
	}
	if raw := q.Get("destino"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, errInvalidFilterValue("destino", raw)
		}
		f.DestinationID = id
	}
	if raw := q.Get("nave"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, errInvalidFilterValue("nave", raw)
		}
		f.ShipID = id
	}
	return f, nil
}
