// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Package query builds parameterized SQL WHERE clauses for the database
// package.
//
// WhereBuilder collects conditions and their arguments and joins them with
// AND. Values never reach the SQL text; every value becomes a "?" placeholder:
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("r.author_id = ?", authorID)
//	wb.AddIn("t.slug", []string{"breakfast", "dinner"})
//	where, args := wb.Build()
//	// where: "r.author_id = ? AND t.slug IN (?, ?)"
//	// args:  [authorID, "breakfast", "dinner"]
//
// Placeholders(n) renders "?, ?, ..." for IN lists built by hand, e.g.
// inside an EXISTS subquery.
package query
