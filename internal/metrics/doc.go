// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package metrics provides Prometheus metrics collection and export for
observability.

All collectors are registered with the default registry via promauto and
exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8742/metrics

# Available Metrics

Gateway metrics:
  - gateway_request_duration_seconds: booking gateway latency (histogram)
    Labels: operation (list, get, create, cancel, modify)
  - gateway_request_errors_total: gateway failures (counter)
    Labels: operation, error_class (network, canceled, validation,
    not_found, server)

Optimistic mutation metrics:
  - optimistic_operations_total: mutation resolutions (counter)
    Labels: kind (create, cancel, modify), outcome (committed,
    rolled_back, superseded)
  - optimistic_pending_operations: unresolved mutations (gauge)
  - optimistic_orphaned_operations_purged_total: stale operations the
    janitor discarded (counter)

Cache metrics:
  - reservation_cache_hits / _misses / _evictions / _entries: gauges
    republished from the cache's internal counters on each janitor pass

Realtime metrics:
  - realtime_connected: connection state (gauge, 0/1)
  - realtime_reconnects_total, realtime_events_received_total,
    realtime_errors_total, reconciliation_updates_total

Janitor and sync metrics:
  - janitor_sweeps_total, janitor_sweep_duration_seconds,
    janitor_entries_removed_total (labels: kind)
  - sync_duration_seconds, sync_changes_total (labels: change),
    sync_errors_total, sync_last_success_timestamp

API metrics:
  - api_requests_total, api_request_duration_seconds,
    api_active_requests, api_rate_limit_hits_total

Circuit breaker metrics:
  - circuit_breaker_state (0=closed, 1=half-open, 2=open),
    circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

# Usage

Record helpers wrap the common multi-collector updates:

	start := time.Now()
	page, err := client.List(ctx, query)
	metrics.RecordGatewayRequest("list", time.Since(start), errorClass(err))

Collectors are package-level and safe for concurrent use.
*/
package metrics
