// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/store"
)

// Sweeper interface matches the store's janitor entry point.
//
// Satisfied by *store.Store from internal/store/janitor.go. The store
// records its own metrics per sweep; the service only reports passes that
// actually removed something.
type Sweeper interface {
	Sweep(now time.Time) store.SweepResult
}

// JanitorService runs the store's janitor sweep on a fixed interval.
//
// Each pass evicts expired cache entries and purges orphaned pending
// operations. The service runs until its context is canceled; the
// supervisor restarts it if a sweep panics.
//
// Example usage:
//
//	svc := services.NewJanitorService(st, 10*time.Minute)
//	tree.AddMaintenanceService(svc)
type JanitorService struct {
	sweeper  Sweeper
	interval time.Duration
	name     string
	log      zerolog.Logger
}

// NewJanitorService creates a janitor service sweeping at the given
// interval. Intervals <= 0 default to 10 minutes.
func NewJanitorService(sweeper Sweeper, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JanitorService{
		sweeper:  sweeper,
		interval: interval,
		name:     "cache-janitor",
		log:      logging.WithComponent("janitor"),
	}
}

// Serve implements suture.Service. It sweeps once per interval and
// returns ctx.Err() on shutdown.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			res := j.sweeper.Sweep(now)
			if res.CacheRemoved > 0 || res.OpsPurged > 0 {
				j.log.Info().
					Int("cache_removed", res.CacheRemoved).
					Int("ops_purged", res.OpsPurged).
					Msg("Janitor pass removed stale state")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (j *JanitorService) String() string {
	return j.name
}
