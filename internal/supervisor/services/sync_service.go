// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package services

import (
	"context"
	"time"
)

// Synchronizer interface matches the store's full-sync entry point.
//
// Satisfied by *store.Store from internal/store/reconcile.go.
type Synchronizer interface {
	FullSync(ctx context.Context) error
}

// SyncService runs a full synchronization pass against the booking
// platform on a fixed interval.
//
// A failed pass is logged by the store and retried on the next tick;
// it does not crash the service, because a platform outage is an
// expected condition, not a service fault.
type SyncService struct {
	syncer   Synchronizer
	interval time.Duration
	name     string
}

// NewSyncService creates a full-sync service running at the given
// interval. Intervals <= 0 default to 15 minutes.
func NewSyncService(syncer Synchronizer, interval time.Duration) *SyncService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SyncService{
		syncer:   syncer,
		interval: interval,
		name:     "full-sync",
	}
}

// Serve implements suture.Service. It syncs once per interval and
// returns ctx.Err() on shutdown. Gateway failures are swallowed; the
// store has already recorded and logged them.
func (s *SyncService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.syncer.FullSync(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *SyncService) String() string {
	return s.name
}
