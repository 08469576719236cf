// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"time"

	"github.com/stellartours/reservasync/internal/models"
)

// All returns every reservation in collection order.
func (s *Store) All() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(func(models.Reservation) bool { return true })
}

// Filtered returns the reservations passing the active filter, in
// collection order.
func (s *Store) Filtered() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.filters.Matches)
}

// Page returns the current page slice of the filtered collection.
func (s *Store) Page() []models.Reservation {
	s.mu.RLock()
	filtered := s.collectLocked(s.filters.Matches)
	page, perPage := s.page, s.perPage
	s.mu.RUnlock()

	start := (page - 1) * perPage
	if start >= len(filtered) {
		return nil
	}
	end := start + perPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// Pending returns reservations awaiting confirmation.
func (s *Store) Pending() []models.Reservation {
	return s.byStatus(models.StatusPending)
}

// Confirmed returns confirmed reservations.
func (s *Store) Confirmed() []models.Reservation {
	return s.byStatus(models.StatusConfirmed)
}

// Cancelled returns cancelled reservations.
func (s *Store) Cancelled() []models.Reservation {
	return s.byStatus(models.StatusCancelled)
}

// Completed returns completed trips.
func (s *Store) Completed() []models.Reservation {
	return s.byStatus(models.StatusCompleted)
}

func (s *Store) byStatus(status models.Status) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(func(r models.Reservation) bool { return r.Status == status })
}

// Next returns the non-cancelled reservation with the earliest future
// travel date, or false when no trip lies ahead.
func (s *Store) Next() (models.Reservation, bool) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best models.Reservation
	found := false
	for _, id := range s.order {
		rec := s.materializeLocked(s.byID[id])
		if rec.Status == models.StatusCancelled {
			continue
		}
		if !rec.EffectiveDate().After(now) {
			continue
		}
		if !found || rec.EffectiveDate().Before(best.EffectiveDate()) {
			best = rec
			found = true
		}
	}
	return best, found
}

// GetByID returns the reservation with any pending optimistic patch
// applied, or false when the ID is not in the collection.
func (s *Store) GetByID(id int64) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return models.Reservation{}, false
	}
	return s.materializeLocked(rec), true
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Total returns the platform's total reservation count from the last
// paginated load.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// TotalPages returns the page count derived from the platform total, or
// from the local collection when no paginated load has run yet.
func (s *Store) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.total
	if count == 0 {
		count = len(s.order)
	}
	if count == 0 {
		return 0
	}
	return (count + s.perPage - 1) / s.perPage
}

// collectLocked materializes the records passing keep, preserving
// collection order. Caller holds at least the read lock.
func (s *Store) collectLocked(keep func(models.Reservation) bool) []models.Reservation {
	out := make([]models.Reservation, 0, len(s.order))
	for _, id := range s.order {
		rec := s.materializeLocked(s.byID[id])
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// materializeLocked returns the record as views see it: with any pending
// optimistic patch applied and flagged. Caller holds at least the read
// lock.
func (s *Store) materializeLocked(rec models.Reservation) models.Reservation {
	if patch, ok := s.patches[rec.ID]; ok {
		rec = patch.ApplyTo(rec)
		rec.Optimistic = true
	}
	return rec
}
