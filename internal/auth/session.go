// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package auth

import (
	"sync"
	"time"

	"github.com/stellartours/reservasync/internal/logging"
)

// Session tracks the traveler's authentication state and notifies
// subscribers on transitions.
//
// The store subscribes to session transitions: logging in triggers a
// reservation load, logging out resets all reservation state so one
// traveler's data never leaks into the next session.
//
// Thread Safety: all methods are safe for concurrent use. Subscriber
// callbacks run synchronously on the goroutine that caused the
// transition (a timer goroutine when the token lapses); they must not
// call back into Session.
type Session struct {
	mu          sync.RWMutex
	manager     *JWTManager
	token       string
	claims      *Claims
	expiry      *time.Timer
	subscribers []func(authenticated bool)
}

// NewSession creates a session tracker backed by the given token manager.
func NewSession(manager *JWTManager) *Session {
	return &Session{manager: manager}
}

// SetToken validates and installs a session token. An invalid token
// clears the session. Subscribers are notified only when the
// authenticated state actually changes. A watcher timer armed for the
// token's expiry flips the signal when the token lapses.
func (s *Session) SetToken(token string) error {
	claims, err := s.manager.ValidateToken(token)

	s.mu.Lock()
	was := s.authenticatedLocked()
	s.stopWatcherLocked()
	if err != nil {
		s.token = ""
		s.claims = nil
	} else {
		s.token = token
		s.claims = claims
		s.armWatcherLocked()
	}
	now := s.authenticatedLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if err != nil {
		logging.Warn().Err(err).Msg("Rejected session token")
	} else {
		logging.Info().Str("username", claims.Username).Msg("Session established")
	}

	if was != now {
		for _, fn := range subs {
			fn(now)
		}
	}
	return err
}

// Clear ends the session (logout). Subscribers are notified if the
// session was authenticated.
func (s *Session) Clear() {
	s.mu.Lock()
	was := s.authenticatedLocked()
	s.stopWatcherLocked()
	s.token = ""
	s.claims = nil
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if was {
		logging.Info().Msg("Session cleared")
		for _, fn := range subs {
			fn(false)
		}
	}
}

// IsAuthenticated reports whether a valid, unexpired session exists.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedLocked()
}

// Token returns the current bearer token, empty when unauthenticated.
// Matches the gateway's TokenFunc signature.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return "", nil
	}
	return s.token, nil
}

// Claims returns a copy of the current session claims, or nil when
// unauthenticated.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return nil
	}
	c := *s.claims
	return &c
}

// Subscribe registers a callback invoked on every authenticated-state
// transition with the new state.
func (s *Session) Subscribe(fn func(authenticated bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// armWatcherLocked schedules the expiry transition for the current
// claims. Caller must hold the write lock.
func (s *Session) armWatcherLocked() {
	if s.claims == nil || s.claims.ExpiresAt == nil {
		return
	}
	s.expiry = time.AfterFunc(time.Until(s.claims.ExpiresAt.Time), s.expire)
}

// stopWatcherLocked cancels a pending expiry timer. Caller must hold the
// write lock.
func (s *Session) stopWatcherLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

// expire runs on the watcher timer when the token lapses: it clears the
// session and notifies subscribers, exactly as an explicit logout would.
// A session replaced since the timer was armed is left alone.
func (s *Session) expire() {
	s.mu.Lock()
	if s.claims == nil || s.claims.ExpiresAt == nil || time.Now().Before(s.claims.ExpiresAt.Time) {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.claims = nil
	s.expiry = nil
	subs := s.subscribersLocked()
	s.mu.Unlock()

	logging.Info().Msg("Session expired")
	for _, fn := range subs {
		fn(false)
	}
}

// authenticatedLocked checks claims presence and expiry. Caller must hold
// at least the read lock.
func (s *Session) authenticatedLocked() bool {
	if s.claims == nil {
		return false
	}
	if s.claims.ExpiresAt != nil && time.Now().After(s.claims.ExpiresAt.Time) {
		return false
	}
	return true
}

// subscribersLocked snapshots the subscriber list. Caller must hold the lock.
func (s *Session) subscribersLocked() []func(bool) {
	out := make([]func(bool), len(s.subscribers))
	copy(out, s.subscribers)
	return out
}
