// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package metrics declares Larder's Prometheus metrics.

Every metric is registered with promauto on package init and exposed at
/metrics by the API router (promhttp.Handler).

# Available Metrics

HTTP:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

Database:
  - duckdb_query_duration_seconds{operation,table}
  - duckdb_query_errors_total{operation,table,error_type}

Auth:
  - auth_login_attempts_total{result}
  - auth_token_validations_total{result}
  - auth_revoked_tokens
  - auth_revocation_cleanup_removed_total

Cache and domain:
  - cache_hits_total{cache}, cache_misses_total{cache}, cache_entries{cache}
  - domain_events_total{event_type}
  - domain_event_publish_errors_total{event_type}
  - recipes_created_total
  - shopping_list_downloads_total
  - media_uploads_total{kind,result}

Application:
  - app_info{version,go_version}
  - app_uptime_seconds

Callers should use the Record* helpers rather than touching the vectors
directly so label sets stay consistent.
*/
package metrics
