// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(1*time.Minute, 0)

	// Test Set and Get
	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	// Test non-existent key
	_, exists = c.Get("key2")
	if exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(100*time.Millisecond, 0)

	c.Set("key1", "value1")

	// Value should exist immediately
	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	// Wait for expiration
	time.Sleep(150 * time.Millisecond)

	// Value should be expired
	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheSizeBoundEvictsOldest(t *testing.T) {
	c := New(1*time.Minute, 2)

	c.Set("a", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", 2)
	time.Sleep(2 * time.Millisecond)
	c.Set("c", 3)

	// Inserting c pushed the cache over its bound of 2, so a (the oldest)
	// must be gone and b, c must remain.
	if _, exists := c.Get("a"); exists {
		t.Error("Expected oldest key a to be evicted")
	}
	if _, exists := c.Get("b"); !exists {
		t.Error("Expected key b to survive eviction")
	}
	if _, exists := c.Get("c"); !exists {
		t.Error("Expected key c to survive eviction")
	}

	if got := c.Len(); got != 2 {
		t.Errorf("Expected 2 entries after eviction, got %d", got)
	}

	stats := c.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestCacheSizeBoundOverwriteDoesNotEvict(t *testing.T) {
	c := New(1*time.Minute, 2)

	c.Set("a", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", 2)
	time.Sleep(2 * time.Millisecond)

	// Overwriting an existing key keeps the count at the bound.
	c.Set("a", 10)

	if got := c.Len(); got != 2 {
		t.Errorf("Expected 2 entries after overwrite, got %d", got)
	}
	value, exists := c.Get("a")
	if !exists {
		t.Fatal("Expected key a to exist after overwrite")
	}
	if value != 10 {
		t.Errorf("Expected overwritten value 10, got %v", value)
	}
}

func TestCacheUnboundedWhenMaxIsZero(t *testing.T) {
	c := New(1*time.Minute, 0)

	for i := 0; i < 200; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	if got := c.Len(); got != 200 {
		t.Errorf("Expected 200 entries with no bound, got %d", got)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, exists := c.Get("key1")
	if exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheDeleteMissingKeyDoesNotCountEviction(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	before := c.GetStats().Evictions

	c.Delete("no-such-key")
	if got := c.GetStats().Evictions; got != before {
		t.Errorf("Expected evictions unchanged at %d after deleting missing key, got %d", before, got)
	}

	c.Delete("key1")
	if got := c.GetStats().Evictions; got != before+1 {
		t.Errorf("Expected %d evictions after deleting existing key, got %d", before+1, got)
	}
}

func TestCacheEvictionTieBreaksByInsertionOrder(t *testing.T) {
	c := New(1*time.Minute, 0)
	c.maxEntries = 2

	// Force identical storage times so only insertion order can decide
	// which entry is oldest.
	now := time.Now()
	c.Set("first", 1)
	c.Set("second", 2)
	c.mu.Lock()
	for key, entry := range c.entries {
		entry.StoredAt = now
		c.entries[key] = entry
	}
	c.mu.Unlock()

	c.Set("third", 3)

	if _, exists := c.Get("first"); exists {
		t.Error("Expected earliest-inserted key first to be evicted")
	}
	if _, exists := c.Get("second"); !exists {
		t.Error("Expected key second to survive eviction")
	}
	if _, exists := c.Get("third"); !exists {
		t.Error("Expected key third to survive eviction")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Clear()

	for _, key := range []string{"key1", "key2", "key3"} {
		_, exists := c.Get(key)
		if exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
}

func TestCacheStats(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key2") // miss
	c.Get("key1") // hit

	stats := c.GetStats()

	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expectedHitRate := 66.66666666666667 // 2/3 * 100
	if hitRate < expectedHitRate-0.01 || hitRate > expectedHitRate+0.01 {
		t.Errorf("Expected hit rate around %.2f%%, got %.2f%%", expectedHitRate, hitRate)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c := New(1*time.Minute, 0)

	// Set with short TTL
	c.SetWithTTL("key1", "value1", 100*time.Millisecond)

	// Should exist immediately
	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}

	// Wait for expiration
	time.Sleep(150 * time.Millisecond)

	// Should be expired
	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheSweep(t *testing.T) {
	c := New(1*time.Minute, 0)

	now := time.Now()
	c.SetWithTTL("stale1", "v", 10*time.Millisecond)
	c.SetWithTTL("stale2", "v", 10*time.Millisecond)
	c.SetWithTTL("fresh", "v", 1*time.Minute)

	checked, removed := c.Sweep(now.Add(1 * time.Second))
	if checked != 3 {
		t.Errorf("Expected 3 entries checked, got %d", checked)
	}
	if removed != 2 {
		t.Errorf("Expected 2 entries removed, got %d", removed)
	}

	if _, exists := c.Get("fresh"); !exists {
		t.Error("Expected fresh key to survive sweep")
	}
	if _, exists := c.Get("stale1"); exists {
		t.Error("Expected stale1 to be swept")
	}

	stats := c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("Expected 1 total key after sweep, got %d", stats.TotalKeys)
	}
	if stats.LastSweep.IsZero() {
		t.Error("Expected LastSweep to be set")
	}
	if stats.Evictions != 2 {
		t.Errorf("Expected 2 evictions from sweep, got %d", stats.Evictions)
	}
}

func TestCacheSweepNothingExpired(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	checked, removed := c.Sweep(time.Now())
	if checked != 2 {
		t.Errorf("Expected 2 entries checked, got %d", checked)
	}
	if removed != 0 {
		t.Errorf("Expected 0 entries removed, got %d", removed)
	}
}

func TestGenerateKey(t *testing.T) {
	type TestParams struct {
		Page   int
		Status string
	}

	params1 := TestParams{Page: 1, Status: "confirmada"}
	params2 := TestParams{Page: 1, Status: "confirmada"}
	params3 := TestParams{Page: 2, Status: "confirmada"}

	key1 := GenerateKey("reservations:list", params1)
	key2 := GenerateKey("reservations:list", params2)
	key3 := GenerateKey("reservations:list", params3)

	// Same params should generate same key
	if key1 != key2 {
		t.Error("Expected same params to generate same key")
	}

	// Different params should generate different key
	if key1 == key3 {
		t.Error("Expected different params to generate different key")
	}
}

func TestGenerateKeyUnmarshalable(t *testing.T) {
	// Channels cannot be marshaled to JSON
	type UnmarshalableParams struct {
		Ch chan int
	}

	params := UnmarshalableParams{
		Ch: make(chan int),
	}

	// Should fallback to simple string key without panicking
	key := GenerateKey("TestMethod", params)

	if key == "" {
		t.Error("Expected non-empty key even with unmarshalable data")
	}
	if !strings.Contains(key, "TestMethod:") {
		t.Errorf("Expected key to contain method name, got: %s", key)
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := New(1*time.Minute, 100)

	// Run concurrent operations
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%20)
				c.Set(key, id)
				c.Get(key)
				if j%10 == 0 {
					c.Delete(key)
				}
			}
			done <- true
		}(i)
	}

	// Wait for all goroutines to complete
	for i := 0; i < 10; i++ {
		<-done
	}

	// If we get here without deadlock or panic, the test passes
	stats := c.GetStats()
	if stats.Hits == 0 && stats.Misses == 0 {
		t.Error("Expected some cache activity from concurrent operations")
	}
}

func TestCacheStatsCopy(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	c.Get("key1")

	stats1 := c.GetStats()
	originalHits := stats1.Hits

	// More operations
	c.Get("key1")
	c.Get("key2")

	// stats1 should still have old values (it's a copy)
	if stats1.Hits != originalHits {
		t.Error("GetStats should return a copy, not a reference")
	}

	// Get new stats
	stats2 := c.GetStats()
	if stats2.Hits == originalHits {
		t.Error("Expected new stats to reflect updated hits")
	}
}

func TestCacheHitRateZeroOperations(t *testing.T) {
	c := New(1*time.Minute, 0)

	// No gets performed yet
	hitRate := c.HitRate()
	if hitRate != 0.0 {
		t.Errorf("Expected 0%% hit rate with no operations, got %.2f%%", hitRate)
	}
}

func TestCacheEvictionCounterOnClear(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	initialStats := c.GetStats()

	c.Clear()

	stats := c.GetStats()
	expectedEvictions := initialStats.Evictions + 3
	if stats.Evictions != expectedEvictions {
		t.Errorf("Expected %d evictions, got %d", expectedEvictions, stats.Evictions)
	}

	if stats.TotalKeys != 0 {
		t.Errorf("Expected 0 total keys after clear, got %d", stats.TotalKeys)
	}
}

func TestCacheTotalKeysCounter(t *testing.T) {
	c := New(1*time.Minute, 0)

	c.Set("key1", "value1")
	stats := c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("Expected 1 total key, got %d", stats.TotalKeys)
	}

	c.Set("key2", "value2")
	stats = c.GetStats()
	if stats.TotalKeys != 2 {
		t.Errorf("Expected 2 total keys, got %d", stats.TotalKeys)
	}

	// Overwrite existing key (should not increase count)
	c.Set("key1", "new-value1")
	stats = c.GetStats()
	if stats.TotalKeys != 2 {
		t.Errorf("Expected 2 total keys after overwrite, got %d", stats.TotalKeys)
	}

	// Delete updates the counter immediately
	c.Delete("key2")
	stats = c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("Expected 1 total key after delete, got %d", stats.TotalKeys)
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(1*time.Minute, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("key", "value")
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(1*time.Minute, 0)
	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

func BenchmarkCacheSetBounded(b *testing.B) {
	c := New(1*time.Minute, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i%100), i)
	}
}

func BenchmarkGenerateKey(b *testing.B) {
	type TestParams struct {
		Page   int
		Status string
		Limit  int
	}

	params := TestParams{Page: 3, Status: "pendiente", Limit: 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateKey("reservations:list", params)
	}
}
