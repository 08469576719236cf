// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errSimulatedCrash = errors.New("simulated crash")

// MockService is a controllable suture.Service for supervisor tests. It can
// run until canceled, fail a fixed number of times before stabilizing, or
// return a configured error on every start.
type MockService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	crashes    atomic.Int32

	mu       sync.Mutex
	err      error
	maxFails int32
}

// NewMockService creates a mock service that runs until its context ends.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	m.mu.Lock()
	err := m.err
	maxFails := m.maxFails
	m.mu.Unlock()

	if maxFails > 0 && m.crashes.Add(1) <= maxFails {
		return errSimulatedCrash
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// SetError makes every Serve call return err immediately.
func (m *MockService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetFailCount makes the first n Serve calls crash before the service
// stabilizes.
func (m *MockService) SetFailCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxFails = int32(n)
}

// StartCount reports how many times Serve was entered.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

// StopCount reports how many times Serve returned.
func (m *MockService) StopCount() int32 {
	return m.stopCount.Load()
}

// String identifies the service in suture's event log.
func (m *MockService) String() string {
	return m.name
}
