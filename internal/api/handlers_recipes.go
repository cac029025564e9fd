// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/larder/internal/authz"
	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/media"
	"github.com/tomtom215/larder/internal/metrics"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/validation"
)

// ListRecipes returns one page of recipes, newest first.
//
// Filters: author=<id>, tags=<slug> (repeatable, any match),
// is_favorited=0|1, is_in_shopping_cart=0|1. The flag filters apply to the
// viewer; for an anonymous viewer a set flag matches nothing.
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parsePage(r)
	if !ok {
		respondError(w, r, http.StatusNotFound, codeNotFound, detailInvalidPage, nil)
		return
	}
	filter, ve := parseRecipeFilter(r)
	if ve != nil {
		respondValidation(w, ve)
		return
	}

	recipes, total, err := h.db.ListRecipes(r.Context(), filter, p.limit, p.offset())
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondPage(h, w, r, p, total, recipes)
}

func parseRecipeFilter(r *http.Request) (models.RecipeFilter, *validation.RequestValidationError) {
	q := r.URL.Query()
	filter := models.RecipeFilter{ViewerID: viewerID(r)}
	var ve *validation.RequestValidationError
	invalid := func(field, message string) {
		if ve == nil {
			ve = &validation.RequestValidationError{}
		}
		ve.Add(field, message)
	}

	if raw := q.Get("author"); raw != "" {
		author, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			invalid("author", "A valid integer is required.")
		} else {
			filter.AuthorID = &author
		}
	}
	for _, slug := range q["tags"] {
		if slug = strings.TrimSpace(slug); slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}

	flags := []struct {
		name string
		dst  **bool
	}{
		{"is_favorited", &filter.IsFavorited},
		{"is_in_shopping_cart", &filter.IsInShoppingCart},
	}
	for _, f := range flags {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := parseFlag(raw)
		if err != nil {
			invalid(f.name, "Must be 0 or 1.")
			continue
		}
		*f.dst = &v
	}
	return filter, ve
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid flag %q", raw)
	}
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
		return
	}
	h.respondRecipe(w, r, http.StatusOK, id)
}

// respondRecipe answers with the full representation of recipe id as the
// viewer sees it.
func (h *Handler) respondRecipe(w http.ResponseWriter, r *http.Request, status int, id int64) {
	recipe, err := h.db.GetRecipe(r.Context(), id, viewerID(r))
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if recipe == nil {
		respondNotFound(w, r)
		return
	}
	respondJSON(w, status, recipe)
}

// CreateRecipe stores a recipe authored by the viewer and answers 201 with
// its full representation.
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, authz.ActionCreate, 0) {
		return
	}
	var req models.RecipeWriteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !h.validateRecipeRequest(w, r, &req, true) {
		return
	}

	ctx := r.Context()
	imageURL, err := h.media.SaveDataURI(media.KindRecipes, req.Image)
	if err != nil {
		h.respondImageError(w, r, "image", err)
		return
	}

	recipe := &models.Recipe{
		AuthorID:    viewerID(r),
		Name:        req.Name,
		Text:        req.Text,
		Image:       imageURL,
		CookingTime: req.CookingTime,
	}
	if err := h.db.CreateRecipe(ctx, recipe, req.Ingredients, req.Tags); err != nil {
		h.media.Delete(imageURL)
		respondInternal(w, r, err)
		return
	}

	metrics.RecordRecipeCreated()
	h.events.Publish(ctx, events.New(events.RecipeCreated, recipe.AuthorID).WithRecipe(recipe.ID, recipe.ShortLink))
	h.respondRecipe(w, r, http.StatusCreated, recipe.ID)
}

// UpdateRecipe replaces a recipe's fields, ingredients and tags. Without an
// image the stored one is kept.
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.recipeForWrite(w, r, authz.ActionUpdate)
	if !ok {
		return
	}
	var req models.RecipeWriteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !h.validateRecipeRequest(w, r, &req, false) {
		return
	}

	ctx := r.Context()
	var newImage string
	if req.Image != "" {
		url, err := h.media.SaveDataURI(media.KindRecipes, req.Image)
		if err != nil {
			h.respondImageError(w, r, "image", err)
			return
		}
		newImage = url
	}

	recipe := &models.Recipe{
		ID:          existing.ID,
		AuthorID:    existing.AuthorID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       newImage,
		CookingTime: req.CookingTime,
	}
	replaced, err := h.db.UpdateRecipe(ctx, recipe, req.Ingredients, req.Tags)
	if err != nil {
		if newImage != "" {
			h.media.Delete(newImage)
		}
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(w, r)
			return
		}
		respondInternal(w, r, err)
		return
	}
	if replaced != "" {
		h.media.Delete(replaced)
	}

	h.events.Publish(ctx, events.New(events.RecipeUpdated, viewerID(r)).WithRecipe(existing.ID, existing.ShortLink))
	h.respondRecipe(w, r, http.StatusOK, existing.ID)
}

// DeleteRecipe removes a recipe with its ingredients, tags, favorites and
// cart entries.
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.recipeForWrite(w, r, authz.ActionDelete)
	if !ok {
		return
	}

	ctx := r.Context()
	image, err := h.db.DeleteRecipe(ctx, existing.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(w, r)
			return
		}
		respondInternal(w, r, err)
		return
	}
	h.media.Delete(image)

	h.events.Publish(ctx, events.New(events.RecipeDeleted, viewerID(r)).WithRecipe(existing.ID, existing.ShortLink))
	respondNoContent(w)
}

// recipeForWrite loads the recipe named in the URL and checks that the
// viewer may perform action on it. Anonymous callers get 401 before the
// lookup, so they cannot probe which ids exist.
func (h *Handler) recipeForWrite(w http.ResponseWriter, r *http.Request, action string) (*models.Recipe, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
		return nil, false
	}
	if viewerID(r) == 0 && !h.authorize(w, r, action, 0) {
		return nil, false
	}

	recipe, err := h.db.GetRecipeRow(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err)
		return nil, false
	}
	if recipe == nil {
		respondNotFound(w, r)
		return nil, false
	}
	if !h.authorize(w, r, action, recipe.AuthorID) {
		return nil, false
	}
	return recipe, true
}

// validateRecipeRequest runs tag validation, then checks that every
// referenced ingredient and tag exists. It answers 400 itself.
func (h *Handler) validateRecipeRequest(w http.ResponseWriter, r *http.Request, req *models.RecipeWriteRequest, creating bool) bool {
	ve := validation.ValidateStruct(req)
	if creating && req.Image == "" {
		if ve == nil {
			ve = &validation.RequestValidationError{}
		}
		ve.Add("image", "This field is required.")
	}
	if ve != nil {
		respondValidation(w, ve)
		return false
	}

	ve, err := h.unknownReferences(r.Context(), req)
	if err != nil {
		respondInternal(w, r, err)
		return false
	}
	if ve != nil {
		respondValidation(w, ve)
		return false
	}
	return true
}

func (h *Handler) unknownReferences(ctx context.Context, req *models.RecipeWriteRequest) (*validation.RequestValidationError, error) {
	missingIngredients, err := h.db.MissingIngredients(ctx, req.IngredientIDs())
	if err != nil {
		return nil, err
	}
	missingTags, err := h.db.MissingTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	if len(missingIngredients) == 0 && len(missingTags) == 0 {
		return nil, nil
	}

	ve := &validation.RequestValidationError{}
	for _, id := range missingIngredients {
		ve.Add("ingredients", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
	}
	for _, id := range missingTags {
		ve.Add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
	}
	return ve, nil
}

// respondImageError maps media errors to a field error on field.
func (h *Handler) respondImageError(w http.ResponseWriter, r *http.Request, field string, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidImage):
		respondValidation(w, validation.NewFieldError(field,
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image."))
	case errors.Is(err, media.ErrUnsupportedFormat):
		respondValidation(w, validation.NewFieldError(field, "Unsupported image format. Use PNG, JPEG or GIF."))
	case errors.Is(err, media.ErrTooLarge):
		respondValidation(w, validation.NewFieldError(field, "The image is too large."))
	default:
		respondInternal(w, r, err)
	}
}
