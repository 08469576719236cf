// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package services provides suture.Service wrappers for the agent's
long-running components.

Each wrapper adapts one component's native lifecycle to suture's
context-aware Serve pattern and nothing more; the components keep owning
their own behavior.

# Available Services

Realtime Listener (RealtimeService):
  - Wraps the realtime event client
  - Dials once, then the client reconnects on its own
  - Closes the stream on shutdown

Cache Janitor (JanitorService):
  - Calls the store's Sweep on a fixed interval
  - Evicts expired cache entries, purges orphaned pending operations

Full Sync (SyncService):
  - Runs the store's FullSync on a fixed interval
  - Gateway failures are retried on the next tick, not treated as crashes

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Usage Example

	tree, _ := supervisor.NewSupervisorTree(logger, config)

	tree.AddStreamService(services.NewRealtimeService(client))
	tree.AddMaintenanceService(services.NewJanitorService(st, 10*time.Minute))
	tree.AddMaintenanceService(services.NewSyncService(st, 15*time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	tree.Serve(ctx)
*/
package services
