// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/models"
)

// CircuitBreakerClient wraps Client with the circuit breaker pattern,
// preventing cascading failures when the booking platform is unavailable
// or slow.
//
// Only network and server faults count as breaker failures. Validation
// and not-found responses mean the platform answered; they resolve the
// caller's mutation (rollback) but must not open the circuit.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for
// its interval and timeout calculations. Tests should mock the underlying
// client, not the breaker.
type CircuitBreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// breakerSettings tune when the circuit opens and recovers:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
const (
	breakerMinRequests  = 10
	breakerFailureRatio = 0.6
)

// NewCircuitBreakerClient wraps client with circuit breaker protection.
func NewCircuitBreakerClient(client API) *CircuitBreakerClient {
	cbName := "booking-gateway"

	// Start from the closed state in metrics
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= breakerFailureRatio

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		// Platform-level rejections are resolutions, not outages.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch Classify(err) {
			case ClassValidation, ClassNotFound, ClassCanceled:
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a gateway call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, newError(ClassNetwork, "breaker", err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Ping verifies connectivity with circuit breaker protection.
func (cbc *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.Ping(ctx)
	})
	return err
}

// List retrieves a reservation page with circuit breaker protection.
func (cbc *CircuitBreakerClient) List(ctx context.Context, query Query) (*Page, error) {
	return castResult[Page](cbc.execute(func() (interface{}, error) {
		return cbc.client.List(ctx, query)
	}))
}

// Get retrieves one reservation with circuit breaker protection.
func (cbc *CircuitBreakerClient) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return castResult[models.Reservation](cbc.execute(func() (interface{}, error) {
		return cbc.client.Get(ctx, id)
	}))
}

// Create submits a reservation with circuit breaker protection.
func (cbc *CircuitBreakerClient) Create(ctx context.Context, req models.CreateRequest) (*models.Reservation, error) {
	return castResult[models.Reservation](cbc.execute(func() (interface{}, error) {
		return cbc.client.Create(ctx, req)
	}))
}

// Cancel cancels a reservation with circuit breaker protection.
func (cbc *CircuitBreakerClient) Cancel(ctx context.Context, id int64, reason string) (*models.Delta, error) {
	return castResult[models.Delta](cbc.execute(func() (interface{}, error) {
		return cbc.client.Cancel(ctx, id, reason)
	}))
}

// Modify updates a reservation with circuit breaker protection.
func (cbc *CircuitBreakerClient) Modify(ctx context.Context, id int64, delta models.Delta) (*models.Delta, error) {
	return castResult[models.Delta](cbc.execute(func() (interface{}, error) {
		return cbc.client.Modify(ctx, id, delta)
	}))
}

// Verify interface implementations at compile time
var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)
