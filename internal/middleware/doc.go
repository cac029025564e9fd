// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package middleware provides HTTP middleware shared by the API router.

Components:

  - RequestID: X-Request-ID propagation plus request and correlation ids in
    the logging context
  - PrometheusMetrics: request counter, latency histogram and in-flight gauge,
    labeled by chi route pattern
  - Compression: gzip for JSON responses when the client accepts it

All three use the func(http.HandlerFunc) http.HandlerFunc shape; the API
router adapts them to chi with a small wrapper:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Authentication lives in internal/auth.
*/
package middleware
