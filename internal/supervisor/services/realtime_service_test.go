// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockStreamClient implements StreamClient for testing.
type mockStreamClient struct {
	connectErr   error
	connectCount atomic.Int32
	closeCount   atomic.Int32
}

func (m *mockStreamClient) Connect(ctx context.Context) error {
	m.connectCount.Add(1)
	return m.connectErr
}

func (m *mockStreamClient) Close() error {
	m.closeCount.Add(1)
	return nil
}

func TestRealtimeService_Interface(t *testing.T) {
	var _ suture.Service = (*RealtimeService)(nil)
}

func TestRealtimeService_ConnectsAndClosesOnShutdown(t *testing.T) {
	client := &mockStreamClient{}
	svc := NewRealtimeService(client)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for client.connectCount.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if client.connectCount.Load() != 1 {
		t.Fatal("expected one Connect call")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if client.closeCount.Load() != 1 {
		t.Errorf("expected one Close call, got %d", client.closeCount.Load())
	}
}

func TestRealtimeService_ReturnsDialError(t *testing.T) {
	client := &mockStreamClient{connectErr: errors.New("connection refused")}
	svc := NewRealtimeService(client)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected error from failed dial")
	}
	if !errors.Is(err, client.connectErr) {
		t.Errorf("expected wrapped dial error, got %v", err)
	}
	if client.closeCount.Load() != 0 {
		t.Error("Close must not run when Connect fails")
	}
}

func TestRealtimeService_String(t *testing.T) {
	svc := NewRealtimeService(&mockStreamClient{})
	if svc.String() != "realtime-listener" {
		t.Errorf("expected 'realtime-listener', got %q", svc.String())
	}
}
