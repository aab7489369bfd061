// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package analytics implements the read side of the pipeline.

Service.Dashboard and Service.Rate are served from the counter store and
never touch the durable store, except for the total when its counter has
not been created yet. Counters that do not exist are left out of the
summary maps instead of being reported as zero.

The rolling window sums the per-minute buckets rate:<b> for b from
now-n up to and including the current minute. Buckets expire ten minutes
after their last increment, so windows longer than that only see what
the store still holds.

Paged queries and distributions read the durable store; distributions
are cached briefly (api.distribution_cache_ttl). Searches read the search
index and return ErrSearchDisabled when it is not configured.
*/
package analytics
