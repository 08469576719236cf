// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellartours/reservasync/internal/models"
)

func TestSweepRemovesExpiredCacheEntries(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)

	s.cache.SetWithTTL("stale-1", res(1, models.StatusConfirmed, future), 1*time.Millisecond)
	s.cache.SetWithTTL("stale-2", res(2, models.StatusConfirmed, future), 1*time.Millisecond)
	s.cache.Set("fresh", res(3, models.StatusConfirmed, future))

	time.Sleep(5 * time.Millisecond)
	got := s.Sweep(time.Now())

	assert.Equal(t, 3, got.CacheChecked)
	assert.Equal(t, 2, got.CacheRemoved)
	assert.Equal(t, 0, got.OpsPurged)
}

func TestSweepPurgesOrphanedOperations(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	seed(s, res(5, models.StatusPending, future))

	opID, err := s.begin("cancel", 5, models.Delta{Status: models.StatusPtr(models.StatusCancelled)})
	require.NoError(t, err)

	// The optimistic view is active.
	got, _ := s.GetByID(5)
	assert.True(t, got.Optimistic)

	// Age the operation past the orphan threshold.
	s.mu.Lock()
	op := s.pending[opID]
	op.CreatedAt = time.Now().Add(-2 * time.Hour)
	s.pending[opID] = op
	s.mu.Unlock()

	res := s.Sweep(time.Now())
	assert.Equal(t, 1, res.OpsPurged)
	assert.Equal(t, 1, res.PatchesDropped)

	// The entity is back to its canonical state.
	got, ok := s.GetByID(5)
	require.True(t, ok)
	assert.False(t, got.Optimistic)
	assert.Equal(t, models.StatusPending, got.Status)

	s.mu.RLock()
	assert.Empty(t, s.pending)
	assert.Empty(t, s.patches)
	s.mu.RUnlock()
}

func TestSweepKeepsYoungOperations(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	seed(s, res(5, models.StatusPending, future))

	_, err := s.begin("modify", 5, models.Delta{ShipID: models.Int64Ptr(2)})
	require.NoError(t, err)

	res := s.Sweep(time.Now())
	assert.Equal(t, 0, res.OpsPurged)

	got, _ := s.GetByID(5)
	assert.True(t, got.Optimistic)
}

func TestSweepOrphanGuardedByLatestOp(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	seed(s, res(5, models.StatusPending, future))

	// An old operation that was superseded: a newer one owns the patch.
	oldID, err := s.begin("cancel", 5, models.Delta{Status: models.StatusPtr(models.StatusCancelled)})
	require.NoError(t, err)
	_, err = s.begin("modify", 5, models.Delta{ShipID: models.Int64Ptr(3)})
	require.NoError(t, err)

	s.mu.Lock()
	op := s.pending[oldID]
	op.CreatedAt = time.Now().Add(-2 * time.Hour)
	s.pending[oldID] = op
	s.mu.Unlock()

	res := s.Sweep(time.Now())
	assert.Equal(t, 1, res.OpsPurged)
	assert.Equal(t, 0, res.PatchesDropped, "the newer operation's patch must survive")

	got, _ := s.GetByID(5)
	assert.True(t, got.Optimistic)
	assert.Equal(t, int64(3), got.ShipID)
}
