// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stellartours/reservasync/internal/cache"
	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/models"
	"github.com/stellartours/reservasync/internal/notify"
)

// Store-level validation errors. These reject a call before any network
// traffic or state mutation happens.
var (
	ErrInvalidID  = errors.New("store: reservation id must be positive")
	ErrEmptyDelta = errors.New("store: modification delta is empty")
	ErrNotFound   = errors.New("store: reservation not in collection")
)

const (
	defaultPerPage         = 10
	defaultOrphanThreshold = 1 * time.Hour
)

// pendingOp is the record of one in-flight optimistic mutation. The
// canonical record is never touched while an operation is pending; the
// optimistic view comes from the patch map, so rollback is simply
// dropping the patch and the pre-mutation state reappears exactly.
type pendingOp struct {
	ID        string
	Kind      string
	EntityID  int64
	CreatedAt time.Time
}

// Options configures a Store.
type Options struct {
	// PerPage is the page size for paginated loads. Defaults to 10.
	PerPage int

	// OrphanThreshold is the age past which the janitor purges pending
	// operations that never resolved. Defaults to 1 hour.
	OrphanThreshold time.Duration
}

// Store is the in-memory mirror of the traveler's reservations on the
// booking platform. It composes the gateway, the TTL cache, the optimistic
// mutation engine, the realtime reconciliation handler and the janitor.
//
// One lock guards the collection, the optimistic patch map, the pending
// operation map and the pagination state. Gateway calls never happen
// under the lock; commit and rollback re-acquire it and are guarded by
// the latest-operation check so a stale resolution can never clobber a
// newer mutation.
type Store struct {
	gw       gateway.API
	cache    cache.Cacher
	notifier notify.Notifier

	mu       sync.RWMutex
	byID     map[int64]models.Reservation
	order    []int64
	patches  map[int64]models.Delta
	pending  map[string]pendingOp
	latestOp map[int64]string
	filters  models.Filter
	page     int
	perPage  int
	total    int
	loaded   bool
	lastErr  error

	inflightMu sync.Mutex
	inflight   map[int64]chan struct{}

	orphanThreshold time.Duration
}

// New creates a store over the given gateway, cache and notifier.
func New(gw gateway.API, c cache.Cacher, n notify.Notifier, opts Options) *Store {
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	if opts.OrphanThreshold <= 0 {
		opts.OrphanThreshold = defaultOrphanThreshold
	}
	return &Store{
		gw:              gw,
		cache:           c,
		notifier:        n,
		byID:            make(map[int64]models.Reservation),
		order:           make([]int64, 0),
		patches:         make(map[int64]models.Delta),
		pending:         make(map[string]pendingOp),
		latestOp:        make(map[int64]string),
		page:            1,
		perPage:         opts.PerPage,
		inflight:        make(map[int64]chan struct{}),
		orphanThreshold: opts.OrphanThreshold,
	}
}

// newOpID builds an operation identifier carrying the mutation kind, the
// entity and the creation instant, plus a UUID for uniqueness.
func newOpID(kind string, entityID int64) string {
	return fmt.Sprintf("%s-%d-%d-%s", kind, entityID, time.Now().UnixMilli(), uuid.NewString())
}

// reservationKey is the cache key for a single reservation.
func reservationKey(id int64) string {
	return cache.GenerateKey("reservation", id)
}

// upsertLocked installs rec as the canonical record for its ID, appending
// to the order when the ID is new. Caller holds the write lock.
func (s *Store) upsertLocked(rec models.Reservation) {
	if _, exists := s.byID[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.byID[rec.ID] = rec
}

// prependLocked installs rec at the front of the collection, the position
// a freshly created reservation takes. Caller holds the write lock.
func (s *Store) prependLocked(rec models.Reservation) {
	if _, exists := s.byID[rec.ID]; exists {
		s.byID[rec.ID] = rec
		return
	}
	s.order = append([]int64{rec.ID}, s.order...)
	s.byID[rec.ID] = rec
}

// removeLocked drops the record, its patch and its latest-op marker.
// Caller holds the write lock.
func (s *Store) removeLocked(id int64) {
	delete(s.byID, id)
	delete(s.patches, id)
	delete(s.latestOp, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetFilters overlays the given partial filter onto the active one and
// resets pagination to the first page.
func (s *Store) SetFilters(f models.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters.Overlay(f)
	s.page = 1
}

// ClearFilters removes every active filter and resets to the first page.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = models.Filter{}
	s.page = 1
}

// SetPage sets the current page for the Page view. Values below 1 clamp
// to 1.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

// Filters returns the active filter.
func (s *Store) Filters() models.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// InFlight returns the number of unresolved optimistic operations.
func (s *Store) InFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// LastError returns the most recent load failure, or nil.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// InvalidateCached drops the cached copy of one reservation.
func (s *Store) InvalidateCached(id int64) {
	s.cache.Delete(reservationKey(id))
}

// ClearCache drops every cache entry.
func (s *Store) ClearCache() {
	s.cache.Clear()
}

// clearAll wipes the collection and every piece of derived state: patches,
// pending operations, pagination and the cache. Runs when the session ends.
func (s *Store) clearAll() {
	s.mu.Lock()
	s.byID = make(map[int64]models.Reservation)
	s.order = s.order[:0]
	s.patches = make(map[int64]models.Delta)
	s.pending = make(map[string]pendingOp)
	s.latestOp = make(map[int64]string)
	s.page = 1
	s.total = 0
	s.loaded = false
	s.lastErr = nil
	s.mu.Unlock()

	s.cache.Clear()
	metrics.PendingOperations.Set(0)
}

// AuthCallback returns the session transition handler: ending a session
// wipes all reservation state, establishing one triggers a forced reload.
// The reload runs on its own goroutine because session callbacks must not
// block.
func (s *Store) AuthCallback(ctx context.Context) func(bool) {
	return func(authenticated bool) {
		if !authenticated {
			logging.Info().Msg("Session ended, clearing reservation state")
			s.clearAll()
			return
		}
		logging.Info().Msg("Session established, loading reservations")
		go func() {
			if _, err := s.LoadAll(ctx, true); err != nil {
				logging.Error().Err(err).Msg("Initial reservation load failed")
			}
		}()
	}
}
