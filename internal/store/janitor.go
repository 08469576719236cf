// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"time"

	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
)

// SweepResult summarizes one janitor pass.
type SweepResult struct {
	CacheChecked   int
	CacheRemoved   int
	OpsPurged      int
	PatchesDropped int
}

// Sweep runs one janitor pass: expired cache entries are removed in bulk,
// and pending operations older than the orphan threshold are purged along
// with their optimistic patches. An orphaned operation will never resolve
// (its goroutine is long gone), so dropping the patch returns the entity
// to its canonical state.
func (s *Store) Sweep(now time.Time) SweepResult {
	start := time.Now()

	var res SweepResult
	res.CacheChecked, res.CacheRemoved = s.cache.Sweep(now)

	s.mu.Lock()
	for opID, op := range s.pending {
		if now.Sub(op.CreatedAt) < s.orphanThreshold {
			continue
		}
		delete(s.pending, opID)
		res.OpsPurged++

		if s.latestOp[op.EntityID] == opID {
			delete(s.latestOp, op.EntityID)
			if _, ok := s.patches[op.EntityID]; ok {
				delete(s.patches, op.EntityID)
				res.PatchesDropped++
			}
		}
		logging.Warn().
			Str("op", opID).
			Int64("id", op.EntityID).
			Time("created", op.CreatedAt).
			Msg("Purged orphaned pending operation")
	}
	pendingCount := len(s.pending)
	s.mu.Unlock()

	metrics.PendingOperations.Set(float64(pendingCount))
	metrics.RecordJanitorSweep(time.Since(start), res.CacheRemoved, res.OpsPurged, res.PatchesDropped)

	stats := s.cache.GetStats()
	metrics.UpdateCacheGauges(stats.Hits, stats.Misses, stats.Evictions, stats.TotalKeys)

	logging.Debug().
		Int("cache_checked", res.CacheChecked).
		Int("cache_removed", res.CacheRemoved).
		Int("ops_purged", res.OpsPurged).
		Msg("Janitor sweep complete")
	return res
}
