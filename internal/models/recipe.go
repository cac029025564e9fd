// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package models

import "time"

// Recipe is a stored recipe row. Ingredients and tags live in join tables.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Text        string
	Image       string // media URL
	CookingTime int
	ShortLink   string
	PubDate     time.Time
}

// RecipeDetail is the full recipe representation.
type RecipeDetail struct {
	ID               int64              `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           UserProfile        `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeShort is returned by favorite/cart actions and inside subscriptions.
type RecipeShort struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Short projects r to its short form.
func (r *Recipe) Short() RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// RecipeFilter narrows recipe listings. A zero value lists everything.
type RecipeFilter struct {
	AuthorID         *int64
	TagSlugs         []string // OR semantics
	IsFavorited      *bool
	IsInShoppingCart *bool

	// ViewerID is the requesting user, 0 when anonymous.
	ViewerID int64
}

// IngredientAmountInput references a catalog ingredient in a write request.
type IngredientAmountInput struct {
	ID     int64 `json:"id" validate:"required,gt=0"`
	Amount int   `json:"amount" validate:"required,min=1,max=32000"`
}

// RecipeWriteRequest is the body of recipe create and update.
//
// Image is required on create and optional on update; the handler enforces
// the create case because the struct is shared.
type RecipeWriteRequest struct {
	Ingredients []IngredientAmountInput `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []int64                 `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Image       string                  `json:"image" validate:"omitempty,imagedata"`
	Name        string                  `json:"name" validate:"required,max=256"`
	Text        string                  `json:"text" validate:"required"`
	CookingTime int                     `json:"cooking_time" validate:"required,min=1,max=32000"`
}

// IngredientIDs returns the referenced ingredient ids in request order.
func (r *RecipeWriteRequest) IngredientIDs() []int64 {
	ids := make([]int64, len(r.Ingredients))
	for i, in := range r.Ingredients {
		ids[i] = in.ID
	}
	return ids
}

// ShortLinkResponse is returned by get-link.
type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}
