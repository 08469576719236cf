// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package services

import (
	"context"
	"fmt"
)

// StreamClient interface matches the realtime client's lifecycle.
//
// This interface allows the RealtimeService to work with the realtime
// client without importing the realtime package, avoiding circular
// dependencies.
//
// Satisfied by *realtime.Client from internal/realtime/client.go.
type StreamClient interface {
	// Connect establishes the WebSocket connection and starts the
	// listener. It returns once connected; the listener reconnects on
	// its own afterwards.
	Connect(ctx context.Context) error

	// Close shuts the connection and the listener down.
	Close() error
}

// RealtimeService wraps the realtime event client as a supervised service.
//
// The client handles its own reconnection once connected; this wrapper
// only owns the initial dial and the shutdown. A failed initial dial is
// returned to suture, which restarts the service with backoff.
//
// Example usage:
//
//	client := realtime.NewClient(realtime.Config{URL: cfg.RealtimeURL(), Token: session.Token})
//	svc := services.NewRealtimeService(client)
//	tree.AddStreamService(svc)
type RealtimeService struct {
	client StreamClient
	name   string
}

// NewRealtimeService creates a new realtime listener service wrapper.
func NewRealtimeService(client StreamClient) *RealtimeService {
	return &RealtimeService{
		client: client,
		name:   "realtime-listener",
	}
}

// Serve implements suture.Service.
//
// This method:
//  1. Dials the event stream (the client reconnects on its own after this)
//  2. Blocks until the context is canceled
//  3. Closes the client for graceful shutdown
func (r *RealtimeService) Serve(ctx context.Context) error {
	if err := r.client.Connect(ctx); err != nil {
		return fmt.Errorf("realtime connect failed: %w", err)
	}

	<-ctx.Done()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("realtime close failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (r *RealtimeService) String() string {
	return r.name
}
