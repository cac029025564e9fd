// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package models

// APIError is the body of every non-2xx JSON response.
//
// Detail is human readable. Code is machine readable (VALIDATION_ERROR,
// NOT_FOUND, ...). Errors maps request fields to their messages and is only
// present for validation failures.
type APIError struct {
	Detail string              `json:"detail"`
	Code   string              `json:"code"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// Error implements error so handlers can pass an APIError around.
func (e *APIError) Error() string {
	return e.Detail
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HealthStatus is returned by /health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
