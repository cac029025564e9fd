// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/models"
)

func registration(username, email string) map[string]string {
	return map[string]string{
		"email":      email,
		"username":   username,
		"first_name": "Ann",
		"last_name":  "Smith",
		"password":   testPassword,
	}
}

func TestCreateUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/users/", registration("  ann  ", " ann@example.com "), "")
	expectStatus(t, rec, http.StatusCreated)
	created := decode[models.UserCreated](t, rec)
	if created.ID == 0 || created.Username != "ann" || created.Email != "ann@example.com" {
		t.Errorf("created = %+v", created)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password: %s", rec.Body.String())
	}
	if types := s.events.types(); len(types) != 1 || types[0] != events.UserRegistered {
		t.Errorf("events = %v", types)
	}

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"duplicate email", registration("other", "ann@example.com"), "email"},
		{"duplicate username", registration("ann", "other@example.com"), "username"},
		{"reserved username", registration("me", "me@example.com"), "username"},
		{"reserved username any case", registration("Me", "me@example.com"), "username"},
		{"bad username", registration("ann smith", "x@example.com"), "username"},
		{"bad email", registration("bob", "not-an-email"), "email"},
		{"short password", func() map[string]string {
			b := registration("bob", "bob@example.com")
			b["password"] = "short"
			return b
		}(), "password"},
		{"missing first name", func() map[string]string {
			b := registration("bob", "bob@example.com")
			delete(b, "first_name")
			return b
		}(), "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/users/", tt.body, "")
			expectStatus(t, rec, http.StatusBadRequest)
			if apiErr := decode[models.APIError](t, rec); len(apiErr.Errors[tt.field]) == 0 {
				t.Errorf("errors = %v, want key %q", apiErr.Errors, tt.field)
			}
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(http.MethodPost, "/api/users/", registration("ann", "ann@example.com"), ""), http.StatusCreated)

	t.Run("bad credentials", func(t *testing.T) {
		for _, body := range []map[string]string{
			{"email": "ann@example.com", "password": "wrong-password"},
			{"email": "nobody@example.com", "password": testPassword},
		} {
			rec := s.do(http.MethodPost, "/api/auth/token/login/", body, "")
			expectStatus(t, rec, http.StatusBadRequest)
			if apiErr := decode[models.APIError](t, rec); apiErr.Detail != detailBadCredentials {
				t.Errorf("detail = %q", apiErr.Detail)
			}
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/auth/token/login/", map[string]string{"email": "ann@example.com"}, "")
		expectStatus(t, rec, http.StatusBadRequest)
		if apiErr := decode[models.APIError](t, rec); apiErr.Code != codeValidation {
			t.Errorf("code = %q", apiErr.Code)
		}
	})

	rec := s.do(http.MethodPost, "/api/auth/token/login/",
		map[string]string{"email": "ann@example.com", "password": testPassword}, "")
	expectStatus(t, rec, http.StatusOK)
	token := decode[models.TokenResponse](t, rec).AuthToken
	if token == "" {
		t.Fatal("empty auth_token")
	}

	rec = s.do(http.MethodGet, "/api/users/me/", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if me := decode[models.UserProfile](t, rec); me.Username != "ann" || me.IsSubscribed {
		t.Errorf("me = %+v", me)
	}

	expectStatus(t, s.do(http.MethodPost, "/api/auth/token/logout/", nil, ""), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/api/auth/token/logout/", nil, token), http.StatusNoContent)

	rec = s.do(http.MethodGet, "/api/users/me/", nil, token)
	expectStatus(t, rec, http.StatusUnauthorized)
	if apiErr := decode[models.APIError](t, rec); apiErr.Code != "INVALID_TOKEN" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("401 without WWW-Authenticate")
	}

	// A revoked token on a public route is ignored rather than rejected.
	expectStatus(t, s.do(http.MethodGet, "/api/tags/", nil, token), http.StatusOK)
}

func TestMe_Anonymous(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/users/me/", nil, "")
	expectStatus(t, rec, http.StatusUnauthorized)
	if apiErr := decode[models.APIError](t, rec); apiErr.Code != codeNotAuthenticated {
		t.Errorf("code = %q", apiErr.Code)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/users/me/", nil, "garbage"), http.StatusUnauthorized)
}

func TestListAndGetUsers(t *testing.T) {
	s := newTestServer(t)
	ann, annToken := s.createUser("ann")
	bob, _ := s.createUser("bob")
	s.createUser("cat")

	expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", bob.ID), nil, annToken),
		http.StatusCreated)

	rec := s.do(http.MethodGet, "/api/users/?limit=2", nil, annToken)
	expectStatus(t, rec, http.StatusOK)
	page := decode[models.Page[models.UserProfile]](t, rec)
	if page.Count != 3 || len(page.Results) != 2 || page.Next == nil {
		t.Fatalf("page = %+v", page)
	}
	if page.Results[0].Username != "ann" || page.Results[0].IsSubscribed {
		t.Errorf("first = %+v", page.Results[0])
	}
	if page.Results[1].Username != "bob" || !page.Results[1].IsSubscribed {
		t.Errorf("second = %+v", page.Results[1])
	}

	rec = s.do(http.MethodGet, "/api/users/", nil, "")
	for _, p := range decode[models.Page[models.UserProfile]](t, rec).Results {
		if p.IsSubscribed {
			t.Errorf("anonymous viewer sees is_subscribed on %s", p.Username)
		}
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", bob.ID), nil, annToken)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.UserProfile](t, rec); got.ID != bob.ID || !got.IsSubscribed || got.Avatar != nil {
		t.Errorf("bob = %+v", got)
	}
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", ann.ID), nil, "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"avatar":null`) {
		t.Errorf("avatar should serialize as null: %s", rec.Body.String())
	}

	expectStatus(t, s.do(http.MethodGet, "/api/users/9999/", nil, ""), http.StatusNotFound)
	expectStatus(t, s.do(http.MethodGet, "/api/users/?page=5", nil, ""), http.StatusNotFound)
}

func TestSetPassword(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("ann")

	body := map[string]string{"current_password": "wrong-password", "new_password": "another-long-one"}
	rec := s.do(http.MethodPost, "/api/users/set_password/", body, token)
	expectStatus(t, rec, http.StatusBadRequest)
	if apiErr := decode[models.APIError](t, rec); len(apiErr.Errors["current_password"]) == 0 {
		t.Errorf("errors = %v", apiErr.Errors)
	}

	body = map[string]string{"current_password": testPassword, "new_password": "short"}
	expectStatus(t, s.do(http.MethodPost, "/api/users/set_password/", body, token), http.StatusBadRequest)

	body = map[string]string{"current_password": testPassword, "new_password": "another-long-one"}
	expectStatus(t, s.do(http.MethodPost, "/api/users/set_password/", body, ""), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/api/users/set_password/", body, token), http.StatusNoContent)

	login := func(password string) int {
		return s.do(http.MethodPost, "/api/auth/token/login/",
			map[string]string{"email": "ann@example.com", "password": password}, "").Code
	}
	if code := login(testPassword); code != http.StatusBadRequest {
		t.Errorf("old password login = %d", code)
	}
	if code := login("another-long-one"); code != http.StatusOK {
		t.Errorf("new password login = %d", code)
	}
}

func TestAvatar(t *testing.T) {
	s := newTestServer(t)
	ann, token := s.createUser("ann")
	mediaPath := func(url string) string {
		return filepath.Join(s.media.Root(), filepath.FromSlash(strings.TrimPrefix(url, s.media.URLPrefix()+"/")))
	}

	put := func() string {
		t.Helper()
		rec := s.do(http.MethodPut, "/api/users/me/avatar/", map[string]string{"avatar": pngDataURI(128, 96)}, token)
		expectStatus(t, rec, http.StatusOK)
		url := decode[models.AvatarResponse](t, rec).Avatar
		if !strings.HasPrefix(url, "/media/avatars/") {
			t.Fatalf("avatar = %q", url)
		}
		return url
	}

	first := put()
	if _, err := os.Stat(mediaPath(first)); err != nil {
		t.Fatalf("avatar file missing: %v", err)
	}

	// The stored file is served and fits the configured dimension.
	rec := s.do(http.MethodGet, first, nil, "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}

	second := put()
	if _, err := os.Stat(mediaPath(first)); !os.IsNotExist(err) {
		t.Errorf("replaced avatar should be removed, stat err = %v", err)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", ann.ID), nil, "")
	if got := decode[models.UserProfile](t, rec); got.Avatar == nil || *got.Avatar != second {
		t.Errorf("profile avatar = %v, want %q", got.Avatar, second)
	}

	rec = s.do(http.MethodPut, "/api/users/me/avatar/", map[string]string{"avatar": "nope"}, token)
	expectStatus(t, rec, http.StatusBadRequest)
	if apiErr := decode[models.APIError](t, rec); len(apiErr.Errors["avatar"]) == 0 {
		t.Errorf("errors = %v", apiErr.Errors)
	}
	expectStatus(t, s.do(http.MethodPut, "/api/users/me/avatar/", map[string]string{"avatar": pngDataURI(2, 2)}, ""),
		http.StatusUnauthorized)

	expectStatus(t, s.do(http.MethodDelete, "/api/users/me/avatar/", nil, token), http.StatusNoContent)
	if _, err := os.Stat(mediaPath(second)); !os.IsNotExist(err) {
		t.Errorf("deleted avatar should be removed, stat err = %v", err)
	}
	rec = s.do(http.MethodGet, "/api/users/me/", nil, token)
	if got := decode[models.UserProfile](t, rec); got.Avatar != nil {
		t.Errorf("avatar = %q after delete", *got.Avatar)
	}
}

func TestDeleteMe(t *testing.T) {
	w := newRecipeWorld(t)
	recipe := w.createRecipe(w.annToken, "Omelette", w.amounts(w.eggs, 3), []int64{w.breakfast.ID})
	expectStatus(t, w.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite/", recipe.ID), nil, w.bobToken),
		http.StatusCreated)
	expectStatus(t, w.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", w.ann.ID), nil, w.bobToken),
		http.StatusCreated)

	wrong := map[string]string{"current_password": "wrong-password"}
	expectStatus(t, w.do(http.MethodDelete, "/api/users/me/", wrong, w.annToken), http.StatusBadRequest)
	expectStatus(t, w.do(http.MethodDelete, "/api/users/me/", map[string]string{}, w.annToken), http.StatusBadRequest)

	right := map[string]string{"current_password": testPassword}
	expectStatus(t, w.do(http.MethodDelete, "/api/users/me/", right, w.annToken), http.StatusNoContent)

	expectStatus(t, w.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", w.ann.ID), nil, ""), http.StatusNotFound)
	expectStatus(t, w.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d/", recipe.ID), nil, ""), http.StatusNotFound)
	expectStatus(t, w.do(http.MethodGet, "/api/users/me/", nil, w.annToken), http.StatusUnauthorized)
	if _, err := os.Stat(w.mediaFile(recipe.Image)); !os.IsNotExist(err) {
		t.Errorf("recipe image should be removed, stat err = %v", err)
	}

	rec := w.do(http.MethodGet, "/api/users/subscriptions/", nil, w.bobToken)
	if page := decode[models.Page[models.UserWithRecipes]](t, rec); page.Count != 0 {
		t.Errorf("bob still follows %d users", page.Count)
	}
	rec = w.do(http.MethodGet, "/api/recipes/?is_favorited=1", nil, w.bobToken)
	if page := decode[models.Page[models.RecipeDetail]](t, rec); page.Count != 0 {
		t.Errorf("bob still has %d favorites", page.Count)
	}
}
