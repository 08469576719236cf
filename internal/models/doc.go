// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package models defines the reservation domain types shared across the
// gateway, store and realtime packages.
//
// The wire format follows the booking platform's existing REST API, which
// uses Spanish field names (estado, fechaViaje, motivoCancelacion). Go-side
// names are English; JSON tags preserve the upstream contract.
//
// Deltas (partial updates) are modeled with pointer fields so that merges
// can distinguish "field absent" from "field set to zero value". Both the
// commit path after a mutation and the realtime reconciliation path merge
// deltas field by field; fields the server did not send are left untouched.
package models
