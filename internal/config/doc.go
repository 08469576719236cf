// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package config provides centralized configuration management for the
// reservation sync agent using Koanf v2 with layered sources.
//
// Configuration is loaded in three layers with increasing precedence:
// built-in defaults, an optional YAML config file, and environment
// variables. Only explicitly mapped environment variables are read, so
// unrelated process environment never leaks into the configuration.
//
// The only required setting is the booking platform URL:
//
//	PLATFORM_URL=https://plataforma.stellartours.example ./agent
//
// Everything else has working defaults: a 5 minute cache TTL, 10 minute
// janitor sweeps, 15 minute full-sync passes, and a local API on
// 127.0.0.1:8742.
//
// The loaded Config is immutable and safe for concurrent reads. For
// hot-reload scenarios, WatchConfigFile invokes a callback on file change
// and the caller re-runs Load under its own locking.
package config
