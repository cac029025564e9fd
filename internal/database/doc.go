// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package database is Larder's DuckDB-backed store.

All access goes through database/sql with the duckdb-go driver. The schema is
created by versioned migrations (migrations.go) tracked in schema_migrations.

# Conventions

  - Every method takes a context. ensureContext applies a 30s timeout when the
    caller did not set a deadline.
  - Single-row lookups return (nil, nil) when nothing matches.
  - Writes that can conflict return the sentinels in errors.go
    (ErrNotFound, ErrAlreadyExists, ErrSelfFollow, ErrDuplicateEmail,
    ErrDuplicateUsername). Everything else is wrapped with %w.
  - Query timing and failures are recorded through internal/metrics.

# Relations and cascades

DuckDB has no ON DELETE CASCADE and its foreign keys reject deleting a
parent in the same transaction as its children, so the schema carries no
REFERENCES clauses. Referential checks (unknown ingredient or tag ids) happen
before writes, and deletes remove dependent rows explicitly inside one
transaction:

  - DeleteRecipe: recipe_ingredients, recipe_tags, favorites, shopping_cart,
    then the recipe.
  - DeleteUser: each of the user's recipes as above, follows in both
    directions, the user's favorites and cart, then the user.

# Files

	database.go          Open, Close, Ping
	migrations.go        schema and migration runner
	tags.go              tag catalog
	ingredients.go       ingredient catalog and import
	users.go             accounts
	recipes.go           recipe writes
	recipes_read.go      recipe reads and filtering
	relations.go         favorites and shopping cart
	follows.go           subscriptions
	shopping_list.go     cart aggregation
*/
package database
