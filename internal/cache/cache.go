// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Entry represents a cached item with its storage and expiration times.
// StoredAt orders entries for size-bound eviction: when the cache exceeds
// its maximum, the oldest entries go first. Entries stored in the same
// instant fall back to insertion order via seq.
type Entry struct {
	Data      interface{}
	StoredAt  time.Time
	ExpiresAt time.Time
	seq       uint64
}

// Cache is a thread-safe in-memory cache bounded in two dimensions:
// entries expire after a TTL, and the total entry count never exceeds a
// configured maximum (oldest entries are evicted to make room).
//
// The cache does not run its own background cleanup; expired entries are
// removed lazily on Get and in bulk by Sweep, which the janitor service
// calls on its interval.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	seq        uint64
	stats      Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	mu        sync.RWMutex
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
	LastSweep time.Time
}

// New creates a cache with the given default TTL and maximum entry count.
//
// Parameters:
//   - ttl: default expiration duration for entries (e.g. 5 * time.Minute)
//   - maxEntries: hard upper bound on entry count; inserting beyond it
//     evicts the oldest entries first. Values <= 0 mean unbounded.
//
// Thread Safety:
//   - Safe for concurrent access from multiple goroutines
//   - Uses sync.RWMutex for read/write locking
//
// Example:
//
//	c := cache.New(5*time.Minute, 50)
//	c.Set("list:page-1", page)
//	if data, ok := c.Get("list:page-1"); ok {
//	    // Use cached page
//	}
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get retrieves a value from the cache by key with lazy expiration.
//
// Behavior:
//   - Returns (nil, false) if the key doesn't exist
//   - Returns (nil, false) if the entry has expired (the entry is deleted)
//   - Returns (data, true) if the entry is valid
//
// Statistics:
//   - Increments Hits on successful retrieval
//   - Increments Misses on miss or expiration
//   - Increments Evictions when removing an expired entry
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.syncTotalKeysLocked()
		c.mu.Unlock()
		c.recordMiss()
		c.recordEvictions(1)
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value with the cache's default TTL. If the insert pushes
// the cache over its maximum size, the oldest entries are evicted until
// the bound holds again.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL, applying the same size
// bound as Set.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	now := time.Now()

	c.mu.Lock()
	c.seq++
	c.entries[key] = Entry{
		Data:      value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
		seq:       c.seq,
	}
	evicted := c.evictOldestLocked()
	c.syncTotalKeysLocked()
	c.mu.Unlock()

	if evicted > 0 {
		c.recordEvictions(evicted)
	}
}

// evictOldestLocked removes the oldest entries until the cache is within
// its size bound. Returns the number of entries removed. Caller must hold
// the write lock.
func (c *Cache) evictOldestLocked() int64 {
	if c.maxEntries <= 0 {
		return 0
	}

	var evicted int64
	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldestAt time.Time
		var oldestSeq uint64
		for key, entry := range c.entries {
			older := entry.StoredAt.Before(oldestAt) ||
				(entry.StoredAt.Equal(oldestAt) && entry.seq < oldestSeq)
			if oldestKey == "" || older {
				oldestKey = key
				oldestAt = entry.StoredAt
				oldestSeq = entry.seq
			}
		}
		delete(c.entries, oldestKey)
		evicted++
	}
	return evicted
}

// Delete removes a specific cache entry by key. Safe to call with keys
// that don't exist; only an actual removal counts as an eviction.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.syncTotalKeysLocked()
	c.mu.Unlock()

	if existed {
		c.recordEvictions(1)
	}
}

// Clear removes all entries in a single atomic operation, typically after
// a full synchronization invalidates everything at once.
func (c *Cache) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
}

// Sweep removes every entry that expired at or before now and returns the
// number of entries checked and removed. The janitor service calls this on
// its interval; the return values feed its log line and metrics.
func (c *Cache) Sweep(now time.Time) (checked, removed int) {
	c.mu.Lock()
	checked = len(c.entries)
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.syncTotalKeysLocked()
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += int64(removed)
	c.stats.LastSweep = now
	c.stats.mu.Unlock()

	return checked, removed
}

// Len returns the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the cache performance counters. The
// returned struct is a copy, safe to read without holding locks.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:      c.stats.Hits,
		Misses:    c.stats.Misses,
		Evictions: c.stats.Evictions,
		TotalKeys: c.stats.TotalKeys,
		LastSweep: c.stats.LastSweep,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// syncTotalKeysLocked refreshes the TotalKeys counter from the entry map.
// Caller must hold the entry write lock.
func (c *Cache) syncTotalKeysLocked() {
	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.mu.Unlock()
}

// recordHit increments the hit counter
func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

// recordMiss increments the miss counter
func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

// recordEvictions adds n to the eviction counter
func (c *Cache) recordEvictions(n int64) {
	c.stats.mu.Lock()
	c.stats.Evictions += n
	c.stats.mu.Unlock()
}

// GenerateKey creates a cache key from a method name and its parameters.
// Identical parameters always produce identical keys, so repeated queries
// share cache entries.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
