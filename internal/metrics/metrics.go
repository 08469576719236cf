// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the reservation agent:
// - Booking gateway latency and error classes
// - Optimistic mutation outcomes (commit vs rollback)
// - Reservation cache efficiency
// - Realtime event stream health
// - Janitor sweep activity
// - API endpoint latency and throughput

var (
	// Gateway Metrics
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of booking gateway requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	GatewayRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_request_errors_total",
			Help: "Total number of booking gateway request failures",
		},
		[]string{"operation", "error_class"}, // error_class: "network", "canceled", "validation", "not_found", "server"
	)

	// Optimistic Mutation Metrics
	OptimisticOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimistic_operations_total",
			Help: "Total number of optimistic mutations by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: "create", "cancel", "modify"; outcome: "committed", "rolled_back", "superseded"
	)

	PendingOperations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "optimistic_pending_operations",
			Help: "Current number of unresolved optimistic operations",
		},
	)

	OrphanedOperationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "optimistic_orphaned_operations_purged_total",
			Help: "Total number of stale pending operations purged by the janitor",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_cache_hits",
			Help: "Cumulative reservation cache hits",
		},
	)

	CacheMisses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_cache_misses",
			Help: "Cumulative reservation cache misses",
		},
	)

	CacheEvictions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_cache_evictions",
			Help: "Cumulative reservation cache evictions (TTL expiry and size bound)",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservation_cache_entries",
			Help: "Current number of reservation cache entries",
		},
	)

	// Realtime Metrics
	RealtimeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected",
			Help: "Whether the realtime event connection is up (1) or down (0)",
		},
	)

	RealtimeReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_reconnects_total",
			Help: "Total number of realtime connection attempts after a drop",
		},
	)

	RealtimeEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_received_total",
			Help: "Total number of realtime events received",
		},
		[]string{"event"},
	)

	RealtimeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_errors_total",
			Help: "Total number of realtime stream errors",
		},
		[]string{"error_type"}, // "read", "parse", "dial", "validation"
	)

	// Reconciliation Metrics
	ReconciliationUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_updates_total",
			Help: "Total number of reservation updates applied from the event stream",
		},
		[]string{"result"}, // "merged", "unknown_id", "invalid"
	)

	// Janitor Metrics
	JanitorSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "janitor_sweeps_total",
			Help: "Total number of janitor sweep passes",
		},
	)

	JanitorSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "janitor_sweep_duration_seconds",
			Help:    "Duration of janitor sweep passes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	JanitorEntriesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janitor_entries_removed_total",
			Help: "Total number of entries removed by janitor sweeps",
		},
		[]string{"kind"}, // "cache", "operation", "patch"
	)

	// Full Sync Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of full synchronization passes in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SyncChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_changes_total",
			Help: "Total number of reservation changes detected by full synchronization",
		},
		[]string{"change"}, // "added", "updated", "removed"
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of full synchronization failures",
		},
		[]string{"error_class"},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful full synchronization",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// SetAppInfo publishes the build version once at startup.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordUptime refreshes the uptime gauge; called per metrics scrape.
func RecordUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}

// RecordGatewayRequest records a booking gateway request metric.
// errorClass is empty on success.
func RecordGatewayRequest(operation string, duration time.Duration, errorClass string) {
	GatewayRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if errorClass != "" {
		GatewayRequestErrors.WithLabelValues(operation, errorClass).Inc()
	}
}

// RecordOptimisticOutcome records the resolution of an optimistic mutation.
func RecordOptimisticOutcome(kind, outcome string) {
	OptimisticOperations.WithLabelValues(kind, outcome).Inc()
}

// UpdateCacheGauges republishes the cache's internal counters.
func UpdateCacheGauges(hits, misses, evictions, entries int64) {
	CacheHits.Set(float64(hits))
	CacheMisses.Set(float64(misses))
	CacheEvictions.Set(float64(evictions))
	CacheEntries.Set(float64(entries))
}

// RecordJanitorSweep records one janitor pass and what it removed.
func RecordJanitorSweep(duration time.Duration, cacheRemoved, opsRemoved, patchesRemoved int) {
	JanitorSweeps.Inc()
	JanitorSweepDuration.Observe(duration.Seconds())
	JanitorEntriesRemoved.WithLabelValues("cache").Add(float64(cacheRemoved))
	JanitorEntriesRemoved.WithLabelValues("operation").Add(float64(opsRemoved))
	JanitorEntriesRemoved.WithLabelValues("patch").Add(float64(patchesRemoved))
	OrphanedOperationsPurged.Add(float64(opsRemoved))
}

// RecordSyncPass records a full synchronization pass.
func RecordSyncPass(duration time.Duration, added, updated, removed int, errorClass string) {
	SyncDuration.Observe(duration.Seconds())
	if errorClass != "" {
		SyncErrors.WithLabelValues(errorClass).Inc()
		return
	}
	SyncChanges.WithLabelValues("added").Add(float64(added))
	SyncChanges.WithLabelValues("updated").Add(float64(updated))
	SyncChanges.WithLabelValues("removed").Add(float64(removed))
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
