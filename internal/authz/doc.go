// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package authz decides what a caller may do to a recipe, using Casbin RBAC.

# Roles

Roles are derived per request from the caller and the recipe's author:

  - anonymous: no token; may read
  - user: authenticated; may read and create
  - owner: authenticated author of the recipe; may also update and delete

The hierarchy (owner > user > anonymous) lives in the embedded policy.csv;
the matcher in model.conf compares object and action exactly, with "*" as
an action wildcard.

# Decisions

Check returns a Decision instead of a bool so the API can tell a caller
who must log in (401) from one who is not allowed (403):

	switch h.authz.Check(viewerID, recipe.AuthorID, authz.ActionUpdate) {
	case authz.Unauthenticated:
	    // 401
	case authz.Forbidden:
	    // 403
	}

Decisions are cached per (role, object, action) because the policy is
static for the life of the process.
*/
package authz
