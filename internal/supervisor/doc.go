// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package supervisor provides process supervision for the reservation agent
using suture v4.

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("reservasync")
	├── StreamSupervisor ("stream-layer")
	│   └── RealtimeService
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── JanitorService
	│   └── SyncService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A dropped event stream doesn't affect the API's ability to serve
    the in-memory collection
  - A janitor or sync fault restarts independently of the stream
  - Each layer has independent failure counting

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Event hooks via the sutureslog adapter; the agent bridges its
    zerolog logger through logging.NewSlogLogger

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults.

# What Is NOT Supervised

The booking gateway is intentionally not supervised: it is a request/
response client, not a long-running service. Its failure handling lives
in the circuit breaker and the store's rollback path.

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
