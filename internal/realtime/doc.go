// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package realtime consumes the booking platform's WebSocket event stream.

Frames are envelopes of the form

	{"evento": "reserva_actualizada", "datos": {"id": 42, "estado": "confirmada"}}

and are routed to handlers registered per event name. SubscribeUpdates
adds a typed layer for the reservation update event: it decodes the
payload into models.UpdateEvent, validates it (an ID is mandatory) and
drops anything malformed before the store sees it.

The client reconnects automatically with exponential backoff capped at
32 seconds and keeps the connection alive with 30-second pings. Handler
registrations survive reconnects; nothing needs re-subscribing.
*/
package realtime
