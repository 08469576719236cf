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

func seedStatuses(s *Store) {
	future := time.Now().Add(48 * time.Hour)
	seed(s,
		res(1, models.StatusPending, future),
		res(2, models.StatusConfirmed, future.Add(24*time.Hour)),
		res(3, models.StatusCancelled, future),
		res(4, models.StatusCompleted, time.Now().Add(-72*time.Hour)),
		res(5, models.StatusConfirmed, future.Add(48*time.Hour)),
	)
}

func TestStatusViews(t *testing.T) {
	s, _, _ := newTestStore(t)
	seedStatuses(s)

	assert.Len(t, s.Pending(), 1)
	assert.Len(t, s.Confirmed(), 2)
	assert.Len(t, s.Cancelled(), 1)
	assert.Len(t, s.Completed(), 1)
	assert.Len(t, s.All(), 5)
}

func TestFilteredCombinesFields(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	a := res(1, models.StatusConfirmed, future)
	a.DestinationID = 10
	b := res(2, models.StatusConfirmed, future)
	b.DestinationID = 20
	c := res(3, models.StatusPending, future)
	c.DestinationID = 10
	seed(s, a, b, c)

	s.SetFilters(models.Filter{Status: models.StatusConfirmed, DestinationID: 10})

	got := s.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFilteredDateBounds(t *testing.T) {
	s, _, _ := newTestStore(t)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	seed(s,
		res(1, models.StatusConfirmed, base.AddDate(0, 0, -5)),
		res(2, models.StatusConfirmed, base),
		res(3, models.StatusConfirmed, base.AddDate(0, 0, 5)),
	)

	// Upper bound is inclusive through the end of its day.
	s.SetFilters(models.Filter{From: base.AddDate(0, 0, -1), To: base})
	got := s.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestNextReturnsEarliestFutureNonCancelled(t *testing.T) {
	s, _, _ := newTestStore(t)
	now := time.Now()
	seed(s,
		res(1, models.StatusCompleted, now.Add(-24*time.Hour)),
		res(2, models.StatusCancelled, now.Add(24*time.Hour)),
		res(3, models.StatusConfirmed, now.Add(96*time.Hour)),
		res(4, models.StatusPending, now.Add(48*time.Hour)),
	)

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, int64(4), next.ID)
}

func TestNextEmptyWhenNoFutureTrips(t *testing.T) {
	s, _, _ := newTestStore(t)
	seed(s, res(1, models.StatusCompleted, time.Now().Add(-24*time.Hour)))

	_, ok := s.Next()
	assert.False(t, ok)
}

func TestPageSlicesFilteredCollection(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	recs := make([]models.Reservation, 0, 25)
	for i := int64(1); i <= 25; i++ {
		recs = append(recs, res(i, models.StatusConfirmed, future))
	}
	seed(s, recs...)

	s.SetPage(3)
	page := s.Page()
	require.Len(t, page, 5, "25 records at 10 per page leaves 5 on page 3")
	assert.Equal(t, int64(21), page[0].ID)

	s.SetPage(9)
	assert.Empty(t, s.Page())
}

func TestTotalPages(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Equal(t, 0, s.TotalPages())

	future := time.Now().Add(48 * time.Hour)
	seed(s, res(1, models.StatusConfirmed, future))
	assert.Equal(t, 1, s.TotalPages())

	s.mu.Lock()
	s.total = 45
	s.mu.Unlock()
	assert.Equal(t, 5, s.TotalPages())
}

func TestGetByIDAppliesPatch(t *testing.T) {
	s, _, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	seed(s, res(5, models.StatusPending, future))

	_, err := s.begin("cancel", 5, models.Delta{Status: models.StatusPtr(models.StatusCancelled)})
	require.NoError(t, err)

	got, ok := s.GetByID(5)
	require.True(t, ok)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.True(t, got.Optimistic)

	// The canonical record underneath is untouched.
	s.mu.RLock()
	assert.Equal(t, models.StatusPending, s.byID[5].Status)
	s.mu.RUnlock()
}
