// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package cache provides a thread-safe in-memory cache with TTL expiration.

The API uses it to remember short-link resolutions so that /s/{code}/
redirects do not hit the database on every request.

# Expiration

Entries expire lazily: Get drops an expired entry and reports a miss. Serve
sweeps the whole map on an interval and is registered with the supervisor
tree, so memory held by codes nobody asks for again is released.

# Metrics

Every cache is named. Hits, misses and the entry count are exported as
cache_hits_total, cache_misses_total and cache_entries
with a cache label.

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
