// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/models"
)

func TestFavoriteAndCartActions(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		added   string
		removed string
		filter  string
	}{
		{"favorite", "favorite", events.FavoriteAdded, events.FavoriteRemoved, "is_favorited"},
		{"shopping cart", "shopping_cart", events.CartAdded, events.CartRemoved, "is_in_shopping_cart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newRecipeWorld(t)
			recipe := w.createRecipe(w.annToken, "Omelette", w.amounts(w.eggs, 3), []int64{w.breakfast.ID})
			path := fmt.Sprintf("/api/recipes/%d/%s/", recipe.ID, tt.segment)

			expectStatus(t, w.do(http.MethodPost, path, nil, ""), http.StatusUnauthorized)

			rec := w.do(http.MethodPost, path, nil, w.bobToken)
			expectStatus(t, rec, http.StatusCreated)
			short := decode[models.RecipeShort](t, rec)
			if short.ID != recipe.ID || short.Name != "Omelette" || short.Image != recipe.Image || short.CookingTime != 15 {
				t.Errorf("short = %+v", short)
			}

			expectStatus(t, w.do(http.MethodPost, path, nil, w.bobToken), http.StatusBadRequest)

			rec = w.do(http.MethodGet, fmt.Sprintf("/api/recipes/?%s=1", tt.filter), nil, w.bobToken)
			if page := decode[models.Page[models.RecipeDetail]](t, rec); page.Count != 1 {
				t.Errorf("%s filter count = %d, want 1", tt.filter, page.Count)
			}
			rec = w.do(http.MethodGet, fmt.Sprintf("/api/recipes/?%s=1", tt.filter), nil, w.annToken)
			if page := decode[models.Page[models.RecipeDetail]](t, rec); page.Count != 0 {
				t.Errorf("marks are per user, ann sees %d", page.Count)
			}

			expectStatus(t, w.do(http.MethodDelete, path, nil, w.bobToken), http.StatusNoContent)
			rec = w.do(http.MethodDelete, path, nil, w.bobToken)
			expectStatus(t, rec, http.StatusBadRequest)
			if body := decode[models.APIError](t, rec); body.Code != codeBadRequest {
				t.Errorf("code = %q", body.Code)
			}

			missing := fmt.Sprintf("/api/recipes/9999/%s/", tt.segment)
			expectStatus(t, w.do(http.MethodPost, missing, nil, w.bobToken), http.StatusNotFound)
			expectStatus(t, w.do(http.MethodDelete, missing, nil, w.bobToken), http.StatusNotFound)

			types := w.events.types()
			if got := strings.Join(types[1:], ","); got != tt.added+","+tt.removed {
				t.Errorf("events = %v", types)
			}
		})
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	w := newRecipeWorld(t)
	flour := w.createIngredient("flour", "g")
	omelette := w.createRecipe(w.annToken, "Omelette", w.amounts(w.eggs, 3, w.salt, 2), []int64{w.breakfast.ID})
	pancakes := w.createRecipe(w.annToken, "Pancakes", w.amounts(w.eggs, 2, flour, 200), []int64{w.breakfast.ID})
	w.createRecipe(w.annToken, "Stew", w.amounts(w.salt, 10), []int64{w.dinner.ID})

	for _, id := range []int64{omelette.ID, pancakes.ID} {
		expectStatus(t, w.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", id), nil, w.bobToken),
			http.StatusCreated)
	}

	expectStatus(t, w.do(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, ""), http.StatusUnauthorized)

	rec := w.do(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, w.bobToken)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Shopping_cart.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	want := "ingredient,amount,unit\neggs,5,pcs\nflour,200,g\nsalt,2,g\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("csv =\n%s\nwant\n%s", got, want)
	}

	rec = w.do(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, w.annToken)
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Body.String(); got != "ingredient,amount,unit\n" {
		t.Errorf("empty cart csv = %q", got)
	}
}

func TestGetLinkAndResolve(t *testing.T) {
	w := newRecipeWorld(t)
	recipe := w.createRecipe(w.annToken, "Omelette", w.amounts(w.eggs, 3), []int64{w.breakfast.ID})

	rec := w.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/", recipe.ID), nil, "")
	expectStatus(t, rec, http.StatusOK)
	link := decode[models.ShortLinkResponse](t, rec).ShortLink

	const prefix = "http://example.com/s/"
	if !strings.HasPrefix(link, prefix) || !strings.HasSuffix(link, "/") {
		t.Fatalf("short link = %q", link)
	}
	code := strings.TrimSuffix(strings.TrimPrefix(link, prefix), "/")
	if len(code) != models.ShortLinkLength {
		t.Errorf("code %q has length %d", code, len(code))
	}

	// The second resolution is served from the cache.
	for i := 0; i < 2; i++ {
		rec = w.do(http.MethodGet, "/s/"+code+"/", nil, "")
		expectStatus(t, rec, http.StatusFound)
		if loc := rec.Header().Get("Location"); loc != fmt.Sprintf("/api/recipes/%d/", recipe.ID) {
			t.Errorf("Location = %q", loc)
		}
	}
	if id, ok := w.shortLinks.Get(code); !ok || id != recipe.ID {
		t.Errorf("cache entry = %d, %v", id, ok)
	}

	expectStatus(t, w.do(http.MethodGet, "/s/ZZZZZZZZ/", nil, ""), http.StatusNotFound)
	expectStatus(t, w.do(http.MethodGet, "/s/bad!/", nil, ""), http.StatusNotFound)
	expectStatus(t, w.do(http.MethodGet, "/api/recipes/9999/get-link/", nil, ""), http.StatusNotFound)
}

func TestGetLink_PublicURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.PublicURL = "https://larder.example.org/"
	s := newTestServerWithConfig(t, cfg)
	_, token := s.createUser("ann")
	tag := s.createTag("lunch")
	ing := s.createIngredient("rice", "g")
	recipe := s.createRecipe(token, "Rice", []models.IngredientAmountInput{{ID: ing.ID, Amount: 100}}, []int64{tag.ID})

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/", recipe.ID), nil, "")
	expectStatus(t, rec, http.StatusOK)
	if link := decode[models.ShortLinkResponse](t, rec).ShortLink; !strings.HasPrefix(link, "https://larder.example.org/s/") {
		t.Errorf("short link = %q", link)
	}
}
