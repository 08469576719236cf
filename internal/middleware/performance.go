// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/stellartours/reservasync/internal/logging"
)

// slowRequestThresholdMS flags requests worth a warning log. Local API
// calls are served from memory, so anything this slow means the handler
// blocked on the booking platform.
const slowRequestThresholdMS = 1000

// sample is one observed request.
type sample struct {
	route      string
	durationMS int64
	status     int
}

// PerformanceMonitor keeps a fixed-size ring of recent request samples and
// aggregates them per route on demand. Routes are normalized, so every
// reservation ID maps to the same bucket.
type PerformanceMonitor struct {
	mu      sync.RWMutex
	samples []sample
	head    int
	filled  bool
}

// EndpointStats is the aggregated latency summary for one route.
type EndpointStats struct {
	Route        string  `json:"route"`
	RequestCount int64   `json:"requests"`
	ErrorCount   int64   `json:"errors"`
	AvgDuration  float64 `json:"avg_ms"`
	P50Duration  int64   `json:"p50_ms"`
	P95Duration  int64   `json:"p95_ms"`
	P99Duration  int64   `json:"p99_ms"`
	MaxDuration  int64   `json:"max_ms"`
}

// NewPerformanceMonitor creates a monitor holding the last windowSize samples.
func NewPerformanceMonitor(windowSize int) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &PerformanceMonitor{samples: make([]sample, windowSize)}
}

// RecordRequest stores one observation, evicting the oldest when the
// window is full.
func (pm *PerformanceMonitor) RecordRequest(method, path string, durationMS int64, status int) {
	route := method + " " + NormalizeRoute(path)

	pm.mu.Lock()
	pm.samples[pm.head] = sample{route: route, durationMS: durationMS, status: status}
	pm.head++
	if pm.head == len(pm.samples) {
		pm.head = 0
		pm.filled = true
	}
	pm.mu.Unlock()
}

// GetStats aggregates the current window per route, busiest route first.
func (pm *PerformanceMonitor) GetStats() []EndpointStats {
	pm.mu.RLock()
	n := pm.head
	if pm.filled {
		n = len(pm.samples)
	}
	byRoute := make(map[string][]sample)
	for i := 0; i < n; i++ {
		s := pm.samples[i]
		byRoute[s.route] = append(byRoute[s.route], s)
	}
	pm.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(byRoute))
	for route, samples := range byRoute {
		durations := make([]int64, len(samples))
		var sum, errs int64
		for i, s := range samples {
			durations[i] = s.durationMS
			sum += s.durationMS
			if s.status >= http.StatusInternalServerError {
				errs++
			}
		}
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

		stats = append(stats, EndpointStats{
			Route:        route,
			RequestCount: int64(len(durations)),
			ErrorCount:   errs,
			AvgDuration:  float64(sum) / float64(len(durations)),
			P50Duration:  percentile(durations, 0.50),
			P95Duration:  percentile(durations, 0.95),
			P99Duration:  percentile(durations, 0.99),
			MaxDuration:  durations[len(durations)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Route < stats[j].Route
	})
	return stats
}

// Middleware records latency and status for every request passing through.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start).Milliseconds()
		pm.RecordRequest(r.Method, r.URL.Path, duration, wrapper.statusCode)

		if duration > slowRequestThresholdMS {
			logging.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("duration_ms", duration).
				Msg("Slow request detected")
		}
	})
}

// percentile reads the p-th percentile from an ascending-sorted slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
