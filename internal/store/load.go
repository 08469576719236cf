// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"context"
	"fmt"

	"github.com/stellartours/reservasync/internal/cache"
	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/models"
)

// LoadAll returns the in-memory collection, fetching from the platform
// only when the collection is empty or force is set. A successful fetch
// replaces the collection; pending optimistic patches stay applied on top.
func (s *Store) LoadAll(ctx context.Context, force bool) ([]models.Reservation, error) {
	s.mu.RLock()
	if s.loaded && len(s.order) > 0 && !force {
		s.mu.RUnlock()
		return s.All(), nil
	}
	query := s.queryLocked(0, 0)
	s.mu.RUnlock()

	page, err := s.gw.List(ctx, query)
	if err != nil {
		s.recordLoadError(err, "No se pudieron cargar las reservas")
		return nil, err
	}

	s.mu.Lock()
	s.replaceLocked(page.Items)
	s.total = page.Total
	if s.total == 0 {
		s.total = len(page.Items)
	}
	s.page = 1
	s.loaded = true
	s.lastErr = nil
	s.mu.Unlock()

	logging.Info().Int("count", len(page.Items)).Msg("Reservations loaded")
	return s.All(), nil
}

// LoadPage fetches one page of the filtered collection. Page 1 replaces
// the collection; later pages append, deduplicated by ID, so re-fetching
// a page never produces duplicates. Pages are served from the TTL cache
// when a fresh copy exists.
func (s *Store) LoadPage(ctx context.Context, pageNum int) ([]models.Reservation, error) {
	if pageNum < 1 {
		pageNum = 1
	}

	s.mu.RLock()
	query := s.queryLocked(pageNum, s.perPage)
	s.mu.RUnlock()

	key := cache.GenerateKey("list", query)

	page, ok := s.cachedPage(key)
	if !ok {
		var err error
		page, err = s.gw.List(ctx, query)
		if err != nil {
			s.recordLoadError(err, "No se pudieron cargar las reservas")
			return nil, err
		}
		s.cache.Set(key, *page)
	}

	s.mu.Lock()
	if pageNum == 1 {
		s.replaceLocked(page.Items)
	} else {
		for _, rec := range page.Items {
			s.upsertLocked(rec)
		}
	}
	s.page = pageNum
	s.total = page.Total
	s.loaded = true
	s.lastErr = nil
	s.mu.Unlock()

	logging.Debug().Int("page", pageNum).Int("count", len(page.Items)).Msg("Reservation page loaded")
	return s.Page(), nil
}

// LoadOne resolves a single reservation: collection first (with any
// optimistic patch applied), then the TTL cache, then the platform.
// Concurrent loads for the same ID collapse into one gateway request; the
// others wait and read the result.
func (s *Store) LoadOne(ctx context.Context, id int64) (*models.Reservation, error) {
	if id <= 0 {
		logging.Warn().Int64("id", id).Msg("Rejecting load with invalid id")
		return nil, ErrInvalidID
	}

	var ch chan struct{}
	for {
		if rec, ok := s.GetByID(id); ok {
			return &rec, nil
		}

		s.inflightMu.Lock()
		existing, waiting := s.inflight[id]
		if !waiting {
			ch = make(chan struct{})
			s.inflight[id] = ch
			s.inflightMu.Unlock()
			break
		}
		s.inflightMu.Unlock()

		select {
		case <-existing:
			// First loader finished; re-check the collection. If it
			// failed we take over the fetch on the next iteration.
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	defer func() {
		s.inflightMu.Lock()
		delete(s.inflight, id)
		s.inflightMu.Unlock()
		close(ch)
	}()

	key := reservationKey(id)
	if v, ok := s.cache.Get(key); ok {
		if rec, ok := v.(models.Reservation); ok {
			s.mu.Lock()
			s.upsertLocked(rec)
			out := s.materializeLocked(rec)
			s.mu.Unlock()
			return &out, nil
		}
	}

	rec, err := s.gw.Get(ctx, id)
	if err != nil {
		s.recordLoadError(err, "No se pudo cargar la reserva")
		return nil, err
	}
	if rec == nil || rec.ID <= 0 {
		err := &gateway.Error{
			Class:     gateway.ClassServer,
			Operation: "get",
			Err:       fmt.Errorf("reservation %d: response without usable id", id),
		}
		s.recordLoadError(err, "No se pudo cargar la reserva")
		return nil, err
	}

	s.mu.Lock()
	s.upsertLocked(*rec)
	out := s.materializeLocked(*rec)
	s.mu.Unlock()
	s.cache.Set(key, *rec)

	return &out, nil
}

// queryLocked builds the gateway query from the active filters. Zero page
// values request the unpaginated collection. Caller holds at least the
// read lock.
func (s *Store) queryLocked(page, perPage int) gateway.Query {
	return gateway.Query{
		Page:          page,
		PerPage:       perPage,
		Status:        s.filters.Status,
		From:          s.filters.From,
		To:            s.filters.To,
		DestinationID: s.filters.DestinationID,
		ShipID:        s.filters.ShipID,
	}
}

// replaceLocked swaps the collection for the given records. Patches and
// pending operations survive; views re-apply them. Caller holds the write
// lock.
func (s *Store) replaceLocked(items []models.Reservation) {
	s.byID = make(map[int64]models.Reservation, len(items))
	s.order = s.order[:0]
	for _, rec := range items {
		s.upsertLocked(rec)
	}
}

// cachedPage returns a previously cached list page, tolerating both value
// and pointer entries.
func (s *Store) cachedPage(key string) (*gateway.Page, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	switch p := v.(type) {
	case gateway.Page:
		return &p, true
	case *gateway.Page:
		return p, true
	}
	return nil, false
}

// recordLoadError stores the failure and notifies the user, except for
// canceled requests, which are the caller's own doing.
func (s *Store) recordLoadError(err error, fallback string) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if gateway.Classify(err) == gateway.ClassCanceled {
		logging.Debug().Err(err).Msg("Reservation load canceled")
		return
	}
	s.notifier.Error(gateway.UserMessage(err, fallback))
	logging.Error().Err(err).Msg("Reservation load failed")
}
