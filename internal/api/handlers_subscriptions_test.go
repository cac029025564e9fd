// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/models"
)

func TestSubscribe(t *testing.T) {
	w := newRecipeWorld(t)
	for _, name := range []string{"One", "Two", "Three"} {
		w.createRecipe(w.annToken, name, w.amounts(w.eggs, 1), []int64{w.breakfast.ID})
	}
	subscribe := fmt.Sprintf("/api/users/%d/subscribe/", w.ann.ID)

	expectStatus(t, w.do(http.MethodPost, subscribe, nil, ""), http.StatusUnauthorized)

	rec := w.do(http.MethodPost, subscribe+"?recipes_limit=2", nil, w.bobToken)
	expectStatus(t, rec, http.StatusCreated)
	got := decode[models.UserWithRecipes](t, rec)
	if got.ID != w.ann.ID || !got.IsSubscribed || got.RecipesCount != 3 {
		t.Errorf("entry = %+v", got)
	}
	if len(got.Recipes) != 2 || got.Recipes[0].Name != "Three" || got.Recipes[1].Name != "Two" {
		t.Errorf("recipes = %+v", got.Recipes)
	}

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"again", subscribe, w.bobToken, http.StatusBadRequest},
		{"self", subscribe, w.annToken, http.StatusBadRequest},
		{"unknown user", "/api/users/9999/subscribe/", w.bobToken, http.StatusNotFound},
		{"bad recipes_limit", fmt.Sprintf("/api/users/%d/subscribe/?recipes_limit=-1", w.bob.ID), w.annToken, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, w.do(http.MethodPost, tt.path, nil, tt.token), tt.status)
		})
	}

	rec = w.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", w.ann.ID), nil, w.bobToken)
	if profile := decode[models.UserProfile](t, rec); !profile.IsSubscribed {
		t.Error("profile should show the subscription")
	}

	expectStatus(t, w.do(http.MethodDelete, subscribe, nil, w.bobToken), http.StatusNoContent)
	expectStatus(t, w.do(http.MethodDelete, subscribe, nil, w.bobToken), http.StatusBadRequest)
	expectStatus(t, w.do(http.MethodDelete, "/api/users/9999/subscribe/", nil, w.bobToken), http.StatusNotFound)

	types := w.events.types()
	if n := len(types); n < 2 || types[n-2] != events.FollowCreated || types[n-1] != events.FollowRemoved {
		t.Errorf("events = %v", types)
	}
}

func TestSubscriptions(t *testing.T) {
	w := newRecipeWorld(t)
	cat, catToken := w.createUser("cat")
	w.createRecipe(w.annToken, "Omelette", w.amounts(w.eggs, 3), []int64{w.breakfast.ID})
	w.createRecipe(w.annToken, "Pancakes", w.amounts(w.eggs, 2), []int64{w.breakfast.ID})
	w.createRecipe(w.bobToken, "Stew", w.amounts(w.salt, 5), []int64{w.dinner.ID})

	for _, id := range []int64{w.ann.ID, w.bob.ID} {
		expectStatus(t, w.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", id), nil, catToken),
			http.StatusCreated)
	}
	expectStatus(t, w.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", cat.ID), nil, w.annToken),
		http.StatusCreated)

	expectStatus(t, w.do(http.MethodGet, "/api/users/subscriptions/", nil, ""), http.StatusUnauthorized)

	rec := w.do(http.MethodGet, "/api/users/subscriptions/", nil, catToken)
	expectStatus(t, rec, http.StatusOK)
	page := decode[models.Page[models.UserWithRecipes]](t, rec)
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("page = %+v", page)
	}
	ann, bob := page.Results[0], page.Results[1]
	if ann.Username != "ann" || bob.Username != "bob" {
		t.Fatalf("order = %s, %s", ann.Username, bob.Username)
	}
	if !ann.IsSubscribed || ann.RecipesCount != 2 || len(ann.Recipes) != 2 {
		t.Errorf("ann = %+v", ann)
	}
	if bob.RecipesCount != 1 || bob.Recipes[0].Name != "Stew" {
		t.Errorf("bob = %+v", bob)
	}

	rec = w.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=1&limit=1", nil, catToken)
	expectStatus(t, rec, http.StatusOK)
	page = decode[models.Page[models.UserWithRecipes]](t, rec)
	if len(page.Results) != 1 || page.Next == nil {
		t.Fatalf("page = %+v", page)
	}
	if first := page.Results[0]; len(first.Recipes) != 1 || first.RecipesCount != 2 || first.Recipes[0].Name != "Pancakes" {
		t.Errorf("limited entry = %+v", first)
	}

	rec = w.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=0", nil, catToken)
	expectStatus(t, rec, http.StatusOK)
	if page := decode[models.Page[models.UserWithRecipes]](t, rec); len(page.Results[0].Recipes) != 2 {
		t.Errorf("recipes_limit=0 should return all recipes, got %d", len(page.Results[0].Recipes))
	}

	expectStatus(t, w.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=x", nil, catToken),
		http.StatusBadRequest)

	rec = w.do(http.MethodGet, "/api/users/subscriptions/", nil, w.bobToken)
	expectStatus(t, rec, http.StatusOK)
	if page := decode[models.Page[models.UserWithRecipes]](t, rec); page.Count != 0 || page.Results == nil {
		t.Errorf("empty subscriptions = %+v", page)
	}
}
