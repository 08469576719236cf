// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package models

import "time"

// Filter narrows reservation views. Zero-valued fields are inactive; active
// fields are AND-combined in the order: status, date lower bound, date upper
// bound, destination, ship.
type Filter struct {
	Status        Status
	From          time.Time
	To            time.Time
	DestinationID int64
	ShipID        int64
}

// IsZero reports whether no filter field is active.
func (f Filter) IsZero() bool {
	return f.Status == "" &&
		f.From.IsZero() &&
		f.To.IsZero() &&
		f.DestinationID == 0 &&
		f.ShipID == 0
}

// Matches reports whether r passes every active filter field. The upper date
// bound is inclusive through the end of its day; date comparisons use the
// reservation's effective date (travel date, or creation date if unset).
func (f Filter) Matches(r Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && r.EffectiveDate().Before(f.From) {
		return false
	}
	if !f.To.IsZero() {
		endOfDay := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), f.To.Location())
		if r.EffectiveDate().After(endOfDay) {
			return false
		}
	}
	if f.DestinationID != 0 && r.DestinationID != f.DestinationID {
		return false
	}
	if f.ShipID != 0 && r.ShipID != f.ShipID {
		return false
	}
	return true
}

// Overlay merges other's active fields onto f and returns the result.
// Used by the store's SetFilters to apply partial filter updates.
func (f Filter) Overlay(other Filter) Filter {
	if other.Status != "" {
		f.Status = other.Status
	}
	if !other.From.IsZero() {
		f.From = other.From
	}
	if !other.To.IsZero() {
		f.To = other.To
	}
	if other.DestinationID != 0 {
		f.DestinationID = other.DestinationID
	}
	if other.ShipID != 0 {
		f.ShipID = other.ShipID
	}
	return f
}
