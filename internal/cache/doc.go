// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package cache provides a small generic in-memory TTL cache.

The read API uses it in front of the distribution queries, which are
full-table GROUP BY scans of the events table. Counters and the rolling
rate window are never cached: they already come from the KV store.

# Usage

	dist := cache.New[[]models.EventTypeCount]("event-types", 10*time.Second)
	rows, err := dist.GetOrLoad(ctx, "event-types", func(ctx context.Context) ([]models.EventTypeCount, error) {
	    return db.EventTypeDistribution(ctx)
	})

Expiry is lazy: an expired entry is removed by the Get that finds it.
The distribution caches hold one key each, so nothing sweeps; there is no
background goroutine and a Cache needs no Close. Hits and misses are
counted per cache name in pulse_read_cache_lookups_total.

# Thread Safety

All methods are safe for concurrent use. GetOrLoad does not coalesce
concurrent misses; two callers missing the same key both run the loader.
*/
package cache
