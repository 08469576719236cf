// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

/*
Package cache provides thread-safe in-memory caching with TTL expiration
and a hard size bound.

The store uses this layer to keep reservation query results (list pages,
individual lookups) warm between gateway round trips. Entries expire after
a configurable TTL; additionally the cache never holds more than a
configured number of entries, evicting the oldest first when the bound is
exceeded. Both knobs default to the store's values (5-minute TTL, 50
entries) and are configured from the cache section of the config file.

# Expiration

Two mechanisms remove stale entries:

 1. Lazy expiration: Get checks the entry's deadline and deletes it on
    the spot if it has passed, reporting a miss.
 2. Sweep: the janitor service calls Sweep on its interval to remove all
    expired entries in one pass, so entries that are never read again do
    not linger until the next Get.

Manual invalidation is also available: Delete removes one entry (used
after a mutation makes its cached query stale), Clear drops everything
(used after a full synchronization).

# Keys

GenerateKey builds deterministic keys from a method name and a parameter
struct, so identical queries share entries:

	key := cache.GenerateKey("reservations:list", query)
	if cached, ok := c.Get(key); ok {
	    return cached.(models.Page), nil
	}

# Statistics

Hit, miss and eviction counters are tracked internally and exported via
GetStats and HitRate; the metrics package republishes them as Prometheus
gauges.

All methods are safe for concurrent use.
*/
package cache
