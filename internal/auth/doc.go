// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package auth manages the traveler session.
//
// JWTManager signs and validates HMAC-SHA256 session tokens. Session
// wraps the current token with transition notifications: the store loads
// reservations when a session is established and wipes every piece of
// reservation state when it ends, and the gateway reads the bearer token
// from Session.Token on each request.
package auth
