// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package logging provides centralized zerolog-based logging for Reservasync.
//
// All packages log through the global logger configured here. The logger is
// initialized with sane defaults at import time so logging works before main()
// calls Init with the loaded configuration.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("component", "store").Msg("store ready")
//
// An slog bridge is provided for libraries that require *slog.Logger
// (the suture supervisor event hook uses it).
package logging
