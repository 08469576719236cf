// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"context"
	"time"

	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/models"
)

// Create sends a creation request to the platform and prepends the
// server-assigned reservation to the collection. Creation is not
// optimistic: there is no local record to patch until the server assigns
// an ID.
func (s *Store) Create(ctx context.Context, req models.CreateRequest) (*models.Reservation, error) {
	rec, err := s.gw.Create(ctx, req)
	if err != nil {
		if gateway.Classify(err) != gateway.ClassCanceled {
			s.notifier.Error(gateway.UserMessage(err, "No se pudo crear la reserva"))
		}
		logging.Error().Err(err).Msg("Reservation creation failed")
		return nil, err
	}

	s.mu.Lock()
	s.prependLocked(*rec)
	s.total++
	s.mu.Unlock()

	s.cache.Set(reservationKey(rec.ID), *rec)
	s.notifier.Success("Reserva creada correctamente")
	logging.Info().Int64("id", rec.ID).Msg("Reservation created")
	return rec, nil
}

// Cancel cancels a reservation optimistically: the collection shows the
// cancelled state immediately, and the change is committed or rolled back
// when the platform answers.
func (s *Store) Cancel(ctx context.Context, id int64, reason string) (*models.Reservation, error) {
	now := time.Now()
	patch := models.Delta{
		Status:    models.StatusPtr(models.StatusCancelled),
		UpdatedAt: models.TimePtr(now),
	}
	if reason != "" {
		patch.CancelReason = models.StringPtr(reason)
	}

	opID, err := s.begin("cancel", id, patch)
	if err != nil {
		return nil, err
	}

	serverDelta, err := s.gw.Cancel(ctx, id, reason)
	if err != nil {
		s.rollback(opID, "cancel", id, err, "No se pudo cancelar la reserva")
		return nil, err
	}
	rec := s.commit(opID, "cancel", id, serverDelta, "Reserva cancelada correctamente")
	return &rec, nil
}

// Modify applies a partial update optimistically, committing the
// platform's answer or rolling back to the pre-mutation state on failure.
// An empty delta is rejected before any state changes.
func (s *Store) Modify(ctx context.Context, id int64, delta models.Delta) (*models.Reservation, error) {
	if delta.IsEmpty() {
		logging.Warn().Int64("id", id).Msg("Rejecting modification with empty delta")
		return nil, ErrEmptyDelta
	}

	opID, err := s.begin("modify", id, delta)
	if err != nil {
		return nil, err
	}

	serverDelta, err := s.gw.Modify(ctx, id, delta)
	if err != nil {
		s.rollback(opID, "modify", id, err, "No se pudo modificar la reserva")
		return nil, err
	}
	rec := s.commit(opID, "modify", id, serverDelta, "Reserva modificada correctamente")
	return &rec, nil
}

// begin validates the mutation target, installs the optimistic patch and
// registers the pending operation. The patch overwrites any earlier patch
// for the entity and this operation becomes the latest, so an older
// in-flight resolution turns into a no-op.
func (s *Store) begin(kind string, id int64, patch models.Delta) (string, error) {
	if id <= 0 {
		logging.Warn().Str("kind", kind).Int64("id", id).Msg("Rejecting mutation with invalid id")
		return "", ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		logging.Warn().Str("kind", kind).Int64("id", id).Msg("Rejecting mutation for unknown reservation")
		return "", ErrNotFound
	}

	opID := newOpID(kind, id)
	s.patches[id] = patch
	s.pending[opID] = pendingOp{ID: opID, Kind: kind, EntityID: id, CreatedAt: time.Now()}
	s.latestOp[id] = opID
	metrics.PendingOperations.Set(float64(len(s.pending)))

	logging.Debug().Str("op", opID).Msg("Optimistic mutation started")
	return opID, nil
}

// commit resolves a successful mutation: the platform's delta is merged
// over the canonical record (server fields win, untouched fields are
// retained), the optimistic patch is dropped and the cache entry is
// refreshed. A commit whose operation is no longer the latest for its
// entity only clears its own pending record.
func (s *Store) commit(opID, kind string, id int64, serverDelta *models.Delta, success string) models.Reservation {
	s.mu.Lock()

	if s.latestOp[id] != opID {
		delete(s.pending, opID)
		metrics.PendingOperations.Set(float64(len(s.pending)))
		rec := s.materializeLocked(s.byID[id])
		s.mu.Unlock()

		metrics.RecordOptimisticOutcome(kind, "superseded")
		logging.Debug().Str("op", opID).Msg("Commit superseded by a newer mutation")
		return rec
	}

	rec := s.byID[id]
	if serverDelta != nil {
		rec = serverDelta.ApplyTo(rec)
	}
	rec.Optimistic = false
	s.byID[id] = rec
	delete(s.patches, id)
	delete(s.pending, opID)
	delete(s.latestOp, id)
	metrics.PendingOperations.Set(float64(len(s.pending)))
	s.mu.Unlock()

	s.cache.Set(reservationKey(id), rec)
	metrics.RecordOptimisticOutcome(kind, "committed")
	s.notifier.Success(success)
	logging.Info().Str("op", opID).Msg("Optimistic mutation committed")
	return rec
}

// rollback resolves a failed mutation: the optimistic patch is dropped,
// which restores the exact pre-mutation view, and the platform's error
// message (or the fallback) is surfaced. Guarded by the same
// latest-operation check as commit.
func (s *Store) rollback(opID, kind string, id int64, cause error, fallback string) {
	s.mu.Lock()

	if s.latestOp[id] != opID {
		delete(s.pending, opID)
		metrics.PendingOperations.Set(float64(len(s.pending)))
		s.mu.Unlock()

		metrics.RecordOptimisticOutcome(kind, "superseded")
		logging.Debug().Str("op", opID).Msg("Rollback superseded by a newer mutation")
		return
	}

	delete(s.patches, id)
	delete(s.pending, opID)
	delete(s.latestOp, id)
	metrics.PendingOperations.Set(float64(len(s.pending)))
	s.mu.Unlock()

	metrics.RecordOptimisticOutcome(kind, "rolled_back")
	if gateway.Classify(cause) != gateway.ClassCanceled {
		s.notifier.Error(gateway.UserMessage(cause, fallback))
	}
	logging.Warn().Str("op", opID).Err(cause).Msg("Optimistic mutation rolled back")
}
