// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package api serves the Larder REST API over a chi router.

Routes (all accept an optional trailing slash):

	GET    /api/tags/                         public
	GET    /api/tags/{id}/                    public
	GET    /api/ingredients/?name=<prefix>    public
	GET    /api/ingredients/{id}/             public
	GET    /api/recipes/                      public, paginated, filterable
	POST   /api/recipes/                      authenticated
	GET    /api/recipes/{id}/                 public
	PATCH  /api/recipes/{id}/                 author only
	DELETE /api/recipes/{id}/                 author only
	POST   /api/recipes/{id}/favorite/        authenticated
	DELETE /api/recipes/{id}/favorite/        authenticated
	POST   /api/recipes/{id}/shopping_cart/   authenticated
	DELETE /api/recipes/{id}/shopping_cart/   authenticated
	GET    /api/recipes/{id}/get-link/        public
	GET    /api/recipes/download_shopping_cart/  authenticated, text/csv
	GET    /api/users/                        public, paginated
	POST   /api/users/                        registration
	GET    /api/users/{id}/                   public
	GET    /api/users/me/                     authenticated
	POST   /api/users/set_password/           authenticated
	PUT    /api/users/me/avatar/              authenticated
	DELETE /api/users/me/avatar/              authenticated
	GET    /api/users/subscriptions/          authenticated, paginated
	POST   /api/users/{id}/subscribe/         authenticated
	DELETE /api/users/{id}/subscribe/         authenticated
	POST   /api/auth/token/login/             public, strict rate limit
	POST   /api/auth/token/logout/            authenticated
	GET    /s/{code}/                         302 to the recipe
	GET    /health, /metrics, /media/*

Every non-2xx JSON response is a models.APIError. Recipe write permissions
come from the Casbin policy in internal/authz: anonymous writers get 401,
authenticated non-authors 403.

Writes publish domain events through an events.Publisher after they commit.
*/
package api
