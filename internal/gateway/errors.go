// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass buckets gateway failures for metrics and rollback decisions.
type ErrorClass string

const (
	// ClassNetwork covers transport failures: connection refused, DNS,
	// timeouts, broken pipes.
	ClassNetwork ErrorClass = "network"

	// ClassCanceled covers context cancellation and deadline expiry
	// initiated by the caller.
	ClassCanceled ErrorClass = "canceled"

	// ClassValidation covers HTTP 400/422 responses: the platform
	// rejected the request payload.
	ClassValidation ErrorClass = "validation"

	// ClassNotFound covers HTTP 404: the reservation no longer exists
	// on the platform.
	ClassNotFound ErrorClass = "not_found"

	// ClassServer covers HTTP 5xx and unexpected statuses.
	ClassServer ErrorClass = "server"
)

// Error is the typed failure returned by every gateway operation. It
// preserves the platform's own error message when one was sent, so user
// notifications can surface it instead of a generic fallback.
type Error struct {
	Class      ErrorClass
	Operation  string
	StatusCode int
	// Message is the platform-provided error message, empty when the
	// response carried none (network failures, malformed bodies).
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway %s: %s (%s)", e.Operation, e.Message, e.Class)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v (%s)", e.Operation, e.Err, e.Class)
	}
	return fmt.Sprintf("gateway %s failed (%s)", e.Operation, e.Class)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify returns the error class of err, or ClassServer when err is not
// a gateway error.
func Classify(err error) ErrorClass {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Class
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCanceled
	}
	return ClassServer
}

// UserMessage returns the platform-provided message from err, or fallback
// when none is available. Notifications prefer the platform's wording.
func UserMessage(err error, fallback string) string {
	var ge *Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return fallback
}

// IsRetryable reports whether the failure class is transient: callers may
// retry network and server faults, never validation or not-found.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case ClassNetwork, ClassServer:
		return true
	}
	return false
}

// newError wraps err with its class and operation. Callers fill Message
// and StatusCode when a response body was available.
func newError(class ErrorClass, operation string, err error) *Error {
	return &Error{Class: class, Operation: operation, Err: err}
}
