// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package models defines Larder's data structures.

Three kinds of types live here:

 1. Stored rows, as read from and written to DuckDB by internal/database:
    Tag, Ingredient, User, Recipe, Follow.

 2. API representations, rendered as JSON by internal/api:
    UserProfile, RecipeDetail, RecipeShort, UserWithRecipes, Page.

 3. Request payloads carrying go-playground/validator tags, checked by
    internal/validation before any write: RecipeWriteRequest,
    UserCreateRequest, LoginRequest, SetPasswordRequest, AvatarRequest.

Field limits shared by the schema and the validators are declared in
limits.go so both sides agree.
*/
package models
