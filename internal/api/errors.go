// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package api provides HTTP handlers for the local reservation API.
//
// errors.go - Common API error definitions
package api

import "fmt"

// errInvalidFilterValue builds the error for a malformed filter parameter.
func errInvalidFilterValue(param, value string) error {
	return fmt.Errorf("invalid value %q for filter parameter %s", value, param)
}
