// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/models"
)

func TestLoadAllUsesCollectionUnlessForced(t *testing.T) {
	s, gw, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	gw.listFn = func(gateway.Query) (*gateway.Page, error) {
		return &gateway.Page{Items: []models.Reservation{res(1, models.StatusConfirmed, future)}, Total: 1}, nil
	}

	first, err := s.LoadAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := s.LoadAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, gw.callCount("list"))

	_, err = s.LoadAll(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.callCount("list"))
}

func TestLoadAllPassesFiltersToGateway(t *testing.T) {
	s, gw, _ := newTestStore(t)
	s.SetFilters(models.Filter{Status: models.StatusPending, DestinationID: 4})

	gw.listFn = func(q gateway.Query) (*gateway.Page, error) {
		assert.Equal(t, models.StatusPending, q.Status)
		assert.Equal(t, int64(4), q.DestinationID)
		assert.Zero(t, q.Page)
		return &gateway.Page{}, nil
	}

	_, err := s.LoadAll(context.Background(), true)
	require.NoError(t, err)
}

func TestLoadAllErrorNotifiesAndSetsLastError(t *testing.T) {
	s, gw, rec := newTestStore(t)
	gw.listFn = func(gateway.Query) (*gateway.Page, error) {
		return nil, &gateway.Error{Class: gateway.ClassServer, Message: "Mantenimiento programado"}
	}

	_, err := s.LoadAll(context.Background(), true)
	require.Error(t, err)
	assert.Error(t, s.LastError())
	assert.Equal(t, "error", rec.Last().Level)
	assert.Equal(t, "Mantenimiento programado", rec.Last().Message)
}

func TestLoadAllCanceledIsSilent(t *testing.T) {
	s, gw, rec := newTestStore(t)
	gw.listFn = func(gateway.Query) (*gateway.Page, error) {
		return nil, context.Canceled
	}

	_, err := s.LoadAll(context.Background(), true)
	require.Error(t, err)
	assert.Empty(t, rec.Events())
}

func TestLoadPageAppendsWithDedup(t *testing.T) {
	s, gw, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)

	pages := map[int][]models.Reservation{
		1: {res(1, models.StatusConfirmed, future), res(2, models.StatusConfirmed, future)},
		2: {res(2, models.StatusConfirmed, future), res(3, models.StatusConfirmed, future)},
	}
	gw.listFn = func(q gateway.Query) (*gateway.Page, error) {
		return &gateway.Page{Items: pages[q.Page], Total: 3, Page: q.Page, PerPage: q.PerPage}, nil
	}

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	// Page 2 overlaps on id 2: the collection must not grow a duplicate.
	_, err = s.LoadPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Total())
}

func TestLoadPageOneReplacesCollection(t *testing.T) {
	s, gw, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	seed(s, res(50, models.StatusConfirmed, future))

	gw.listFn = func(q gateway.Query) (*gateway.Page, error) {
		return &gateway.Page{Items: []models.Reservation{res(1, models.StatusPending, future)}, Total: 1}, nil
	}

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	_, ok := s.GetByID(50)
	assert.False(t, ok)
}

func TestLoadPageServedFromCache(t *testing.T) {
	s, gw, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)
	gw.listFn = func(q gateway.Query) (*gateway.Page, error) {
		return &gateway.Page{Items: []models.Reservation{res(1, models.StatusConfirmed, future)}, Total: 1}, nil
	}

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	_, err = s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, gw.callCount("list"))
}

func TestLoadOneResolutionOrder(t *testing.T) {
	s, gw, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)

	// Collection hit: no gateway traffic.
	seed(s, res(1, models.StatusConfirmed, future))
	got, err := s.LoadOne(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 0, gw.callCount("get"))

	// Cache hit: upserted into the collection, still no gateway traffic.
	s.cache.Set(reservationKey(2), res(2, models.StatusPending, future))
	got, err = s.LoadOne(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, 0, gw.callCount("get"))
	_, ok := s.GetByID(2)
	assert.True(t, ok)

	// Miss everywhere: one gateway fetch, then cached.
	gw.getFn = func(id int64) (*models.Reservation, error) {
		r := res(id, models.StatusConfirmed, future)
		return &r, nil
	}
	got, err = s.LoadOne(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, 1, gw.callCount("get"))
	_, cached := s.cache.Get(reservationKey(3))
	assert.True(t, cached)
}

func TestLoadOneCollapsesConcurrentLoads(t *testing.T) {
	s, gw, _ := newTestStore(t)
	future := time.Now().Add(48 * time.Hour)

	entered := make(chan struct{})
	release := make(chan struct{})
	gw.getFn = func(id int64) (*models.Reservation, error) {
		close(entered)
		<-release
		r := res(id, models.StatusConfirmed, future)
		return &r, nil
	}

	var wg sync.WaitGroup
	results := make([]*models.Reservation, 2)
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = s.LoadOne(context.Background(), 8)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = s.LoadOne(context.Background(), 8)
	}()

	// Give the second loader time to park on the in-flight channel.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int64(8), results[0].ID)
	assert.Equal(t, int64(8), results[1].ID)
	assert.Equal(t, 1, gw.callCount("get"), "concurrent loads must share one request")
}

func TestLoadOneInvalidID(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, err := s.LoadOne(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestLoadOneRejectsResponseWithoutUsableID(t *testing.T) {
	s, gw, rec := newTestStore(t)
	gw.getFn = func(int64) (*models.Reservation, error) {
		return &models.Reservation{}, nil
	}

	got, err := s.LoadOne(context.Background(), 42)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, gateway.ClassServer, gateway.Classify(err))

	// The malformed record must not reach the collection or the cache.
	assert.Equal(t, 0, s.Len())
	_, ok := s.GetByID(0)
	assert.False(t, ok)
	_, cached := s.cache.Get(reservationKey(42))
	assert.False(t, cached)

	assert.Error(t, s.LastError())
	assert.Equal(t, "error", rec.Last().Level)
}

func TestLoadOneGatewayErrorNotifies(t *testing.T) {
	s, gw, rec := newTestStore(t)
	gw.getFn = func(int64) (*models.Reservation, error) {
		return nil, &gateway.Error{Class: gateway.ClassNotFound, Message: "Reserva no encontrada"}
	}

	_, err := s.LoadOne(context.Background(), 123)
	require.Error(t, err)
	assert.Equal(t, "Reserva no encontrada", rec.Last().Message)
}
