// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package store holds the in-memory mirror of the traveler's reservations
and keeps it coherent with the booking platform.

Exactly one canonical record exists per reservation ID. Local mutations
(Cancel, Modify) are optimistic: the change appears immediately as a
patch layered over the canonical record, flagged via _isOptimistic, and
is committed or rolled back when the platform answers. The store tracks
the latest operation per entity, so a slow resolution arriving after a
newer mutation on the same reservation is discarded instead of clobbering
it.

Three independent writers converge here and the design keeps them from
stepping on each other:

  - Local mutations write patches, never the canonical record.
  - Realtime updates (HandleUpdate) merge into the canonical record,
    underneath any pending patch.
  - Full sync passes (FullSync) replace canonical records but skip any
    entity with a pending operation.

Loads resolve collection → TTL cache → gateway, with concurrent loads
for the same ID collapsed into one request. The janitor (Sweep) evicts
expired cache entries and purges pending operations that never resolved.
*/
package store
