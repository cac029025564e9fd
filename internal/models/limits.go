// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package models

// Column limits. Keep in sync with the validate tags in this package and the schema in
// internal/database/migrations.go.
const (
	TagNameMaxLength        = 32
	TagSlugMaxLength        = 32
	IngredientNameMaxLength = 128
	IngredientUnitMaxLength = 64
	RecipeNameMaxLength     = 256
	EmailMaxLength          = 254
	NameMaxLength           = 150
	PasswordMinLength       = 8
	PasswordMaxLength       = 128

	MinCookingTime = 1
	MaxCookingTime = 32000
	MinAmount      = 1
	MaxAmount      = 32000

	// ShortLinkLength is the number of characters in a recipe short link code.
	ShortLinkLength = 8
)
