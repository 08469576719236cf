// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package gateway is the HTTP client for the booking platform's REST API.

The store performs every load and mutation through this package. Two
implementations of the API interface exist:

  - Client: the plain HTTP client with rate limiting, 429 backoff and
    bearer authentication.
  - CircuitBreakerClient: wraps any API with sony/gobreaker, rejecting
    requests fast while the platform is down.

# Error classification

Every failure is a *Error carrying an ErrorClass. The class drives two
decisions upstream:

  - The store rolls an optimistic mutation back on any class except
    canceled (a canceled context leaves the operation pending for the
    retry).
  - The circuit breaker counts only network and server classes as
    failures; validation and not_found are answers, not outages.

The platform's own error message is preserved in Error.Message so user
notifications can show it; UserMessage(err, fallback) encapsulates the
preference.

# Mutations return deltas

Cancel and Modify return *models.Delta rather than full records: the
platform reports only the fields it changed. The store merges those
field-by-field, so an update event that arrived while the mutation was in
flight is not clobbered by stale values.
*/
package gateway
