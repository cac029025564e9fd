// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package auth provides token authentication for the recipe API.

Key Components:

  - JWTManager: issues and validates HS256 tokens carrying the user id,
    email and a unique token id (jti)
  - HashPassword / CheckPassword: bcrypt password hashing
  - RevocationStore: remembers the jti of logged-out tokens until they
    expire (memory or BadgerDB backend)
  - Middleware: Optional and Required HTTP middleware that put an
    AuthSubject into the request context

Token Transport:

Clients send the token as

	Authorization: Token <jwt>

The Bearer scheme is accepted as well.

Logout:

Tokens are stateless, so logging out records the token's jti in the
revocation store. Entries carry the token's expiry; once a token would have
expired anyway the entry is useless and CleanupService removes it.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	store, err := auth.NewRevocationStore(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, store)

	r.With(mw.Required).Post("/api/recipes/", h.RecipeCreate)
*/
package auth
