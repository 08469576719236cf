// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package models

import (
	"time"
)

// Status is the lifecycle state of a reservation.
// Values match the upstream API's estado enum.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusConfirmed Status = "confirmada"
	StatusCancelled Status = "cancelada"
	StatusCompleted Status = "completada"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Reservation is the canonical reservation record mirrored from the booking
// platform. Exactly one copy per ID exists in the store's collection.
//
// Optimistic is transient client-side bookkeeping: true only between a
// locally initiated mutation and its resolution (commit or rollback). It is
// never sent to the server.
type Reservation struct {
	ID            int64     `json:"id" validate:"required,gt=0"`
	Status        Status    `json:"estado" validate:"required"`
	DestinationID int64     `json:"destinoId"`
	ShipID        int64     `json:"naveId"`
	TravelDate    time.Time `json:"fechaViaje"`
	CreatedAt     time.Time `json:"fechaCreacion"`
	UpdatedAt     time.Time `json:"fechaActualizacion"`
	CancelReason  string    `json:"motivoCancelacion,omitempty"`

	Optimistic bool `json:"_isOptimistic,omitempty"`
}

// EffectiveDate returns the travel date, falling back to the creation date
// when no travel date is set. Date filters operate on this value.
func (r Reservation) EffectiveDate() time.Time {
	if !r.TravelDate.IsZero() {
		return r.TravelDate
	}
	return r.CreatedAt
}

// CreateRequest is the payload for creating a reservation. The server
// assigns the ID and timestamps.
type CreateRequest struct {
	DestinationID int64     `json:"destinoId" validate:"required,gt=0"`
	ShipID        int64     `json:"naveId" validate:"required,gt=0"`
	TravelDate    time.Time `json:"fechaViaje" validate:"required"`
}

// Delta is a partial reservation update. Nil fields were not present in the
// payload and must not overwrite existing values when the delta is applied.
type Delta struct {
	Status        *Status    `json:"estado,omitempty"`
	DestinationID *int64     `json:"destinoId,omitempty"`
	ShipID        *int64     `json:"naveId,omitempty"`
	TravelDate    *time.Time `json:"fechaViaje,omitempty"`
	UpdatedAt     *time.Time `json:"fechaActualizacion,omitempty"`
	CancelReason  *string    `json:"motivoCancelacion,omitempty"`
}

// IsEmpty reports whether the delta carries no fields at all.
func (d Delta) IsEmpty() bool {
	return d.Status == nil &&
		d.DestinationID == nil &&
		d.ShipID == nil &&
		d.TravelDate == nil &&
		d.UpdatedAt == nil &&
		d.CancelReason == nil
}

// ApplyTo merges the delta into a copy of r and returns it. Only fields
// present in the delta are overwritten.
func (d Delta) ApplyTo(r Reservation) Reservation {
	if d.Status != nil {
		r.Status = *d.Status
	}
	if d.DestinationID != nil {
		r.DestinationID = *d.DestinationID
	}
	if d.ShipID != nil {
		r.ShipID = *d.ShipID
	}
	if d.TravelDate != nil {
		r.TravelDate = *d.TravelDate
	}
	if d.UpdatedAt != nil {
		r.UpdatedAt = *d.UpdatedAt
	}
	if d.CancelReason != nil {
		r.CancelReason = *d.CancelReason
	}
	return r
}

// Merge returns a delta containing d's fields overlaid with other's fields.
// Fields set in other win; fields only in d are kept.
func (d Delta) Merge(other Delta) Delta {
	if other.Status != nil {
		d.Status = other.Status
	}
	if other.DestinationID != nil {
		d.DestinationID = other.DestinationID
	}
	if other.ShipID != nil {
		d.ShipID = other.ShipID
	}
	if other.TravelDate != nil {
		d.TravelDate = other.TravelDate
	}
	if other.UpdatedAt != nil {
		d.UpdatedAt = other.UpdatedAt
	}
	if other.CancelReason != nil {
		d.CancelReason = other.CancelReason
	}
	return d
}

// UpdateEvent is the realtime reservation update pushed over the event
// channel: the reservation ID plus the changed fields, flattened.
type UpdateEvent struct {
	ID int64 `json:"id" validate:"required,gt=0"`
	Delta
}

// StatusPtr returns a pointer to s; convenience for building deltas.
func StatusPtr(s Status) *Status { return &s }

// TimePtr returns a pointer to t; convenience for building deltas.
func TimePtr(t time.Time) *time.Time { return &t }

// StringPtr returns a pointer to s; convenience for building deltas.
func StringPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to v; convenience for building deltas.
func Int64Ptr(v int64) *int64 { return &v }
