// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package notify delivers user-facing operation outcomes.
//
// The store reports every mutation resolution here: a committed cancel
// becomes a success notification, a rollback becomes an error carrying
// the platform's message when one was sent. The default sink writes
// structured log events; tests swap in Recorder to assert on what was
// emitted.
package notify

import (
	"sync"

	"github.com/stellartours/reservasync/internal/logging"
)

// Notifier receives user-facing messages about operation outcomes.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// Log is the production Notifier: notifications become structured log
// events tagged with their severity.
type Log struct{}

// NewLog returns a log-backed notifier.
func NewLog() *Log { return &Log{} }

func (l *Log) Success(message string) {
	logging.Info().Str("notification", "success").Msg(message)
}

func (l *Log) Error(message string) {
	logging.Error().Str("notification", "error").Msg(message)
}

func (l *Log) Info(message string) {
	logging.Info().Str("notification", "info").Msg(message)
}

// Event is one recorded notification.
type Event struct {
	Level   string
	Message string
}

// Recorder captures notifications for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty recording notifier.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Success(message string) { r.record("success", message) }
func (r *Recorder) Error(message string)   { r.record("error", message) }
func (r *Recorder) Info(message string)    { r.record("info", message) }

func (r *Recorder) record(level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Level: level, Message: message})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event, or a zero Event when none exist.
func (r *Recorder) Last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Verify interface implementations at compile time
var (
	_ Notifier = (*Log)(nil)
	_ Notifier = (*Recorder)(nil)
)
