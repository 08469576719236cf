// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(testLogger(), cfg)
	if err != nil {
		t.Fatalf("failed to create supervisor tree: %v", err)
	}
	return tree
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, deadline time.Duration, cond func() bool) bool {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestNewSupervisorTreeDefaults(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold default: got %f", tree.config.FailureThreshold)
	}
	if tree.config.FailureDecay != 30.0 {
		t.Errorf("FailureDecay default: got %f", tree.config.FailureDecay)
	}
	if tree.config.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff default: got %v", tree.config.FailureBackoff)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout default: got %v", tree.config.ShutdownTimeout)
	}
	if tree.Root() == nil {
		t.Error("Root() must not be nil")
	}
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected failure parameters: %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected timing parameters: %+v", cfg)
	}
}

func TestTreeStartsServicesInEveryLayer(t *testing.T) {
	tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})

	stream := NewMockService("realtime-listener")
	janitor := NewMockService("cache-janitor")
	api := NewMockService("local-api")
	tree.AddStreamService(stream)
	tree.AddMaintenanceService(janitor)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	started := waitFor(t, time.Second, func() bool {
		return stream.StartCount() >= 1 && janitor.StartCount() >= 1 && api.StartCount() >= 1
	})
	if !started {
		t.Errorf("not all layers started: stream=%d janitor=%d api=%d",
			stream.StartCount(), janitor.StartCount(), api.StartCount())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected shutdown error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("tree did not shut down in time")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	tree := newTestTree(t, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := NewMockService("full-sync")
	flaky.SetFailCount(2)
	stable := NewMockService("local-api")
	tree.AddMaintenanceService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	recovered := waitFor(t, 2*time.Second, func() bool {
		return flaky.StartCount() >= 3
	})
	if !recovered {
		t.Errorf("expected crashed service restarted to a third run, got %d starts", flaky.StartCount())
	}
	if stable.StartCount() != 1 {
		t.Errorf("crash in maintenance layer must not touch the API layer, got %d starts", stable.StartCount())
	}
}

func TestTreeServeBlocksUntilCanceled(t *testing.T) {
	tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error from Serve: %v", err)
	}
}

func TestMockServiceBehavior(t *testing.T) {
	var _ suture.Service = (*MockService)(nil)

	t.Run("runs until context ends", func(t *testing.T) {
		svc := NewMockService("steady")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
		if svc.StartCount() != 1 || svc.StopCount() != 1 {
			t.Errorf("expected one start/stop, got %d/%d", svc.StartCount(), svc.StopCount())
		}
	})

	t.Run("fails n times then stabilizes", func(t *testing.T) {
		svc := NewMockService("flaky")
		svc.SetFailCount(2)

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); !errors.Is(err, errSimulatedCrash) {
				t.Fatalf("run %d: expected simulated crash, got %v", i+1, err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("third run must stabilize, got %v", err)
		}
	})

	t.Run("propagates configured error", func(t *testing.T) {
		svc := NewMockService("one-shot")
		svc.SetError(suture.ErrDoNotRestart)

		if err := svc.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("expected ErrDoNotRestart, got %v", err)
		}
	})
}

func TestServiceReturningDoNotRestartStaysDown(t *testing.T) {
	tree := newTestTree(t, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	svc := NewMockService("one-shot")
	svc.SetError(suture.ErrDoNotRestart)
	tree.AddMaintenanceService(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	<-errCh
	if svc.StartCount() != 1 {
		t.Errorf("ErrDoNotRestart service must run exactly once, got %d", svc.StartCount())
	}
}
