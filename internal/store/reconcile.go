// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/models"
)

// HandleUpdate merges a realtime update into the canonical record,
// field-level last-write-wins. It races freely with local mutations: the
// merge goes into the canonical record, underneath any pending optimistic
// patch, so a later rollback keeps the realtime fields and a later commit
// layers the server's answer over them.
func (s *Store) HandleUpdate(ev models.UpdateEvent) {
	s.mu.Lock()
	rec, ok := s.byID[ev.ID]
	if !ok {
		s.mu.Unlock()
		metrics.ReconciliationUpdates.WithLabelValues("unknown_id").Inc()
		logging.Debug().Int64("id", ev.ID).Msg("Realtime update for reservation not in collection")
		return
	}

	rec = ev.Delta.ApplyTo(rec)
	s.byID[ev.ID] = rec
	materialized := s.materializeLocked(rec)
	s.mu.Unlock()

	// Refresh the cached copy only when one exists; an update must not
	// plant cache entries for reservations nobody asked for.
	key := reservationKey(ev.ID)
	if _, cached := s.cache.Get(key); cached {
		s.cache.Set(key, rec)
	}

	metrics.ReconciliationUpdates.WithLabelValues("merged").Inc()
	s.notifier.Info(fmt.Sprintf("Reserva %d actualizada", ev.ID))
	logging.Info().Int64("id", ev.ID).Str("status", string(materialized.Status)).Msg("Realtime update merged")
}

// FullSync fetches the platform's current reservation list and reconciles
// the collection against it: new reservations are added, records whose
// status or update time differ are replaced, and reservations the platform
// no longer returns are removed. Reservations with a pending optimistic
// operation are never removed or replaced by a sync pass.
func (s *Store) FullSync(ctx context.Context) error {
	start := time.Now()

	s.mu.RLock()
	query := s.queryLocked(0, 0)
	s.mu.RUnlock()

	page, err := s.gw.List(ctx, query)
	if err != nil {
		metrics.RecordSyncPass(time.Since(start), 0, 0, 0, string(gateway.Classify(err)))
		logging.Error().Err(err).Msg("Full synchronization failed")
		return err
	}

	var added, updated, removed int

	s.mu.Lock()
	remote := make(map[int64]models.Reservation, len(page.Items))
	for _, rec := range page.Items {
		remote[rec.ID] = rec
	}

	for _, rec := range page.Items {
		local, ok := s.byID[rec.ID]
		if !ok {
			s.upsertLocked(rec)
			added++
			continue
		}
		if _, pending := s.patches[rec.ID]; pending {
			continue
		}
		if local.Status != rec.Status || !local.UpdatedAt.Equal(rec.UpdatedAt) {
			s.byID[rec.ID] = rec
			updated++
		}
	}

	var stale []int64
	for id := range s.byID {
		if _, ok := remote[id]; ok {
			continue
		}
		if _, pending := s.patches[id]; pending {
			continue
		}
		stale = append(stale, id)
	}
	for _, id := range stale {
		s.removeLocked(id)
		removed++
	}

	s.total = page.Total
	if s.total == 0 {
		s.total = len(page.Items)
	}
	s.loaded = true
	s.mu.Unlock()

	for _, rec := range page.Items {
		key := reservationKey(rec.ID)
		if _, cached := s.cache.Get(key); cached {
			s.cache.Set(key, rec)
		}
	}
	for _, id := range stale {
		s.cache.Delete(reservationKey(id))
	}

	metrics.RecordSyncPass(time.Since(start), added, updated, removed, "")

	if added+updated+removed > 0 {
		s.notifier.Info(fmt.Sprintf(
			"Sincronización: %d nuevas, %d actualizadas, %d eliminadas", added, updated, removed))
	}
	logging.Info().
		Int("added", added).
		Int("updated", updated).
		Int("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("Full synchronization complete")
	return nil
}
