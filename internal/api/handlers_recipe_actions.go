// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/metrics"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/shortlink"
)

// shoppingListFilename is offered to the browser for the CSV export.
const shoppingListFilename = "Shopping_cart.csv"

// recipeRelation is a per-user mark on a recipe: favorite or cart entry.
type recipeRelation struct {
	add          func(ctx context.Context, userID, recipeID int64) error
	remove       func(ctx context.Context, userID, recipeID int64) error
	addedEvent   string
	removedEvent string
	existsDetail string
	absentDetail string
}

func (h *Handler) favoriteRelation() recipeRelation {
	return recipeRelation{
		add:          h.db.AddFavorite,
		remove:       h.db.RemoveFavorite,
		addedEvent:   events.FavoriteAdded,
		removedEvent: events.FavoriteRemoved,
		existsDetail: "Recipe is already in favorites.",
		absentDetail: "Recipe is not in favorites.",
	}
}

func (h *Handler) cartRelation() recipeRelation {
	return recipeRelation{
		add:          h.db.AddToCart,
		remove:       h.db.RemoveFromCart,
		addedEvent:   events.CartAdded,
		removedEvent: events.CartRemoved,
		existsDetail: "Recipe is already in the shopping cart.",
		absentDetail: "Recipe is not in the shopping cart.",
	}
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, h.favoriteRelation())
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, h.favoriteRelation())
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, h.cartRelation())
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, h.cartRelation())
}

// addRelation answers 201 with the short recipe, 400 when the mark already
// exists and 404 for an unknown recipe.
func (h *Handler) addRelation(w http.ResponseWriter, r *http.Request, rel recipeRelation) {
	recipe, ok := h.recipeOr404(w, r)
	if !ok {
		return
	}
	viewer := viewerID(r)
	if err := rel.add(r.Context(), viewer, recipe.ID); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			respondBadRequest(w, r, rel.existsDetail)
			return
		}
		respondInternal(w, r, err)
		return
	}
	h.events.Publish(r.Context(), events.New(rel.addedEvent, viewer).WithRecipe(recipe.ID, recipe.ShortLink))
	respondJSON(w, http.StatusCreated, recipe.Short())
}

// removeRelation answers 204, or 400 when there was no mark.
func (h *Handler) removeRelation(w http.ResponseWriter, r *http.Request, rel recipeRelation) {
	recipe, ok := h.recipeOr404(w, r)
	if !ok {
		return
	}
	viewer := viewerID(r)
	if err := rel.remove(r.Context(), viewer, recipe.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondBadRequest(w, r, rel.absentDetail)
			return
		}
		respondInternal(w, r, err)
		return
	}
	h.events.Publish(r.Context(), events.New(rel.removedEvent, viewer).WithRecipe(recipe.ID, recipe.ShortLink))
	respondNoContent(w)
}

func (h *Handler) recipeOr404(w http.ResponseWriter, r *http.Request) (*models.Recipe, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
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
	return recipe, true
}

// GetLink returns the absolute short link of a recipe.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	recipe, ok := h.recipeOr404(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s/", h.baseURL(r), recipe.ShortLink),
	})
}

// ResolveShortLink redirects /s/{code}/ to the recipe it names.
// Resolutions are cached; the recipe.deleted event evicts them.
func (h *Handler) ResolveShortLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !shortlink.Valid(code, models.ShortLinkLength) {
		respondNotFound(w, r)
		return
	}

	id, ok := h.shortLinks.Get(code)
	if !ok {
		var err error
		id, ok, err = h.db.GetRecipeIDByShortLink(r.Context(), code)
		if err != nil {
			respondInternal(w, r, err)
			return
		}
		if !ok {
			respondNotFound(w, r)
			return
		}
		h.shortLinks.Set(code, id)
	}

	http.Redirect(w, r, "/api/recipes/"+strconv.FormatInt(id, 10)+"/", http.StatusFound)
}

// DownloadShoppingCart streams the viewer's aggregated shopping list as CSV.
func (h *Handler) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.db.ShoppingList(r.Context(), viewerID(r))
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shoppingListFilename))
	w.WriteHeader(http.StatusOK)

	if err := writeShoppingList(csv.NewWriter(w), items); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write shopping list")
		return
	}
	metrics.RecordShoppingListDownload()
}

func writeShoppingList(cw *csv.Writer, items []models.ShoppingListItem) error {
	if err := cw.Write([]string{"ingredient", "amount", "unit"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := cw.Write([]string{item.Name, strconv.FormatInt(item.Amount, 10), item.Unit}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
