// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package database

import "errors"

// Store errors. Handlers map these with errors.Is.
var (
	// ErrNotFound is returned when a write targets a row or relation that
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a relation (favorite, cart entry,
	// follow) or catalog entry is already present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")

	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	ErrDuplicateUsername = errors.New("a user with that username already exists")
)
