// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/validation"
)

// parseRecipesLimit reads ?recipes_limit=. 0 means no limit.
func parseRecipesLimit(r *http.Request) (int, *validation.RequestValidationError) {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, validation.NewFieldError("recipes_limit", "Ensure this value is a non-negative integer.")
	}
	return limit, nil
}

// withRecipes attaches an author's newest recipes and their total count.
func (h *Handler) withRecipes(ctx context.Context, profile models.UserProfile, recipesLimit int) (models.UserWithRecipes, error) {
	recipes, err := h.db.ListRecipesShortByAuthor(ctx, profile.ID, recipesLimit)
	if err != nil {
		return models.UserWithRecipes{}, err
	}
	count, err := h.db.CountRecipesByAuthor(ctx, profile.ID)
	if err != nil {
		return models.UserWithRecipes{}, err
	}
	return models.UserWithRecipes{UserProfile: profile, Recipes: recipes, RecipesCount: count}, nil
}

// Subscriptions returns one page of the users the viewer follows, each with
// their recipes.
func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parsePage(r)
	if !ok {
		respondError(w, r, http.StatusNotFound, codeNotFound, detailInvalidPage, nil)
		return
	}
	recipesLimit, ve := parseRecipesLimit(r)
	if ve != nil {
		respondValidation(w, ve)
		return
	}

	ctx := r.Context()
	users, total, err := h.db.ListFollowing(ctx, viewerID(r), p.limit, p.offset())
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	results := make([]models.UserWithRecipes, 0, len(users))
	for i := range users {
		entry, err := h.withRecipes(ctx, users[i].Profile(true), recipesLimit)
		if err != nil {
			respondInternal(w, r, err)
			return
		}
		results = append(results, entry)
	}
	respondPage(h, w, r, p, total, results)
}

// Subscribe follows the user in the URL and answers 201 with their profile
// and recipes.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	author, ok := h.userOr404(w, r)
	if !ok {
		return
	}
	recipesLimit, ve := parseRecipesLimit(r)
	if ve != nil {
		respondValidation(w, ve)
		return
	}

	ctx := r.Context()
	viewer := viewerID(r)
	if err := h.db.Follow(ctx, viewer, author.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrSelfFollow):
			respondBadRequest(w, r, "You cannot subscribe to yourself.")
		case errors.Is(err, database.ErrAlreadyExists):
			respondBadRequest(w, r, "You are already subscribed to this user.")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	entry, err := h.withRecipes(ctx, author.Profile(true), recipesLimit)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	h.events.Publish(ctx, events.New(events.FollowCreated, viewer).WithAuthor(author.ID))
	respondJSON(w, http.StatusCreated, entry)
}

// Unsubscribe stops following the user in the URL.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	author, ok := h.userOr404(w, r)
	if !ok {
		return
	}
	viewer := viewerID(r)
	if err := h.db.Unfollow(r.Context(), viewer, author.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondBadRequest(w, r, "You are not subscribed to this user.")
			return
		}
		respondInternal(w, r, err)
		return
	}
	h.events.Publish(r.Context(), events.New(events.FollowRemoved, viewer).WithAuthor(author.ID))
	respondNoContent(w)
}

func (h *Handler) userOr404(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
		return nil, false
	}
	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err)
		return nil, false
	}
	if user == nil {
		respondNotFound(w, r)
		return nil, false
	}
	return user, true
}
