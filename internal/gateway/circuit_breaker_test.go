// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellartours/reservasync/internal/models"
)

// flakyAPI fails every call with a fixed error until healed.
type flakyAPI struct {
	err    error
	healed bool
}

func (f *flakyAPI) call() error {
	if f.healed {
		return nil
	}
	return f.err
}

func (f *flakyAPI) Ping(ctx context.Context) error { return f.call() }

func (f *flakyAPI) List(ctx context.Context, query Query) (*Page, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &Page{}, nil
}

func (f *flakyAPI) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &models.Reservation{ID: id, Status: models.StatusConfirmed}, nil
}

func (f *flakyAPI) Create(ctx context.Context, req models.CreateRequest) (*models.Reservation, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &models.Reservation{ID: 1}, nil
}

func (f *flakyAPI) Cancel(ctx context.Context, id int64, reason string) (*models.Delta, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &models.Delta{Status: models.StatusPtr(models.StatusCancelled)}, nil
}

func (f *flakyAPI) Modify(ctx context.Context, id int64, delta models.Delta) (*models.Delta, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &delta, nil
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	cbc := NewCircuitBreakerClient(&flakyAPI{healed: true})

	r, err := cbc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.ID)

	delta, err := cbc.Cancel(context.Background(), 7, "")
	require.NoError(t, err)
	require.NotNil(t, delta.Status)
	assert.Equal(t, models.StatusCancelled, *delta.Status)
}

func TestCircuitBreakerOpensOnNetworkFaults(t *testing.T) {
	api := &flakyAPI{err: newError(ClassNetwork, "ping", assert.AnError)}
	cbc := NewCircuitBreakerClient(api)

	// Drive the breaker past its minimum request count with pure failures.
	for i := 0; i < 12; i++ {
		_ = cbc.Ping(context.Background())
	}

	// The circuit is now open; even a healed backend is not reached.
	api.healed = true
	err := cbc.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, ClassNetwork, Classify(err))
}

func TestCircuitBreakerIgnoresPlatformRejections(t *testing.T) {
	api := &flakyAPI{err: &Error{Class: ClassValidation, Operation: "modify", Message: "invalid"}}
	cbc := NewCircuitBreakerClient(api)

	// Validation failures are answers from the platform, not outages:
	// they must never open the circuit.
	for i := 0; i < 25; i++ {
		_, err := cbc.Modify(context.Background(), 1, models.Delta{Status: models.StatusPtr(models.StatusConfirmed)})
		require.Error(t, err)
		assert.Equal(t, ClassValidation, Classify(err))
	}

	api.healed = true
	_, err := cbc.Modify(context.Background(), 1, models.Delta{Status: models.StatusPtr(models.StatusConfirmed)})
	assert.NoError(t, err)
}

func TestCastResult(t *testing.T) {
	page := &Page{Total: 3}

	got, err := castResult[Page](page, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)

	_, err = castResult[Page](nil, assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = castResult[Page]("not a page", nil)
	assert.Error(t, err)
}

func TestStateConversions(t *testing.T) {
	assert.Equal(t, float64(0), stateToFloat(0)) // closed
	assert.Equal(t, "closed", stateToString(0))
	assert.Equal(t, "half-open", stateToString(1))
	assert.Equal(t, "open", stateToString(2))
}
