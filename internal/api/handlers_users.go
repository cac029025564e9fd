// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/larder/internal/auth"
	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/media"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/validation"
)

// reservedUsername collides with the /api/users/me/ route.
const reservedUsername = "me"

// ListUsers returns one page of users ordered by username.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parsePage(r)
	if !ok {
		respondError(w, r, http.StatusNotFound, codeNotFound, detailInvalidPage, nil)
		return
	}
	users, total, err := h.db.ListUsers(r.Context(), p.limit, p.offset())
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	profiles, err := h.profiles(r.Context(), viewerID(r), users)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondPage(h, w, r, p, total, profiles)
}

// profiles projects users with is_subscribed computed for the viewer in a
// single query.
func (h *Handler) profiles(ctx context.Context, viewer int64, users []models.User) ([]models.UserProfile, error) {
	followed := map[int64]struct{}{}
	if viewer != 0 && len(users) > 0 {
		ids := make([]int64, len(users))
		for i := range users {
			ids[i] = users[i].ID
		}
		var err error
		if followed, err = h.db.FollowedAmong(ctx, viewer, ids); err != nil {
			return nil, err
		}
	}

	profiles := make([]models.UserProfile, len(users))
	for i := range users {
		_, subscribed := followed[users[i].ID]
		profiles[i] = users[i].Profile(subscribed)
	}
	return profiles, nil
}

// CreateUser registers an account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UserCreateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	ve := validation.ValidateStruct(&req)
	if strings.EqualFold(req.Username, reservedUsername) {
		if ve == nil {
			ve = &validation.RequestValidationError{}
		}
		ve.Add("username", "This username is reserved.")
	}
	if ve != nil {
		respondValidation(w, ve)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateEmail):
			respondValidation(w, validation.NewFieldError("email", "A user with that email already exists."))
		case errors.Is(err, database.ErrDuplicateUsername):
			respondValidation(w, validation.NewFieldError("username", "A user with that username already exists."))
		default:
			respondInternal(w, r, err)
		}
		return
	}

	h.events.Publish(r.Context(), events.New(events.UserRegistered, user.ID))
	respondJSON(w, http.StatusCreated, models.UserCreated{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// GetUser returns a public profile.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
		return
	}
	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if user == nil {
		respondNotFound(w, r)
		return
	}

	subscribed := false
	if viewer := viewerID(r); viewer != 0 {
		if subscribed, err = h.db.IsFollowing(r.Context(), viewer, id); err != nil {
			respondInternal(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, user.Profile(subscribed))
}

// Me returns the viewer's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user.Profile(false))
}

// currentUser loads the authenticated user. A valid token for a deleted
// account answers 401.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := h.db.GetUserByID(r.Context(), viewerID(r))
	if err != nil {
		respondInternal(w, r, err)
		return nil, false
	}
	if user == nil {
		respondError(w, r, http.StatusUnauthorized, codeNotAuthenticated, detailNotAuthenticated, nil)
		return nil, false
	}
	return user, true
}

// checkCurrentPassword answers 400 on field current_password when password
// does not match.
func (h *Handler) checkCurrentPassword(w http.ResponseWriter, r *http.Request, user *models.User, password string) bool {
	match, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		respondInternal(w, r, err)
		return false
	}
	if !match {
		respondValidation(w, validation.NewFieldError("current_password", "Invalid password."))
		return false
	}
	return true
}

// SetPassword changes the viewer's password after checking the current one.
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.SetPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, ve)
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok || !h.checkCurrentPassword(w, r, user, req.CurrentPassword) {
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if err := h.db.SetPassword(r.Context(), user.ID, hash); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondNoContent(w)
}

// SetAvatar stores a new avatar and removes the previous file.
func (h *Handler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req models.AvatarRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, ve)
		return
	}

	url, err := h.media.SaveDataURI(media.KindAvatars, req.Avatar)
	if err != nil {
		h.respondImageError(w, r, "avatar", err)
		return
	}
	previous, err := h.db.SetAvatar(r.Context(), viewerID(r), &url)
	if err != nil {
		h.media.Delete(url)
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusUnauthorized, codeNotAuthenticated, detailNotAuthenticated, nil)
			return
		}
		respondInternal(w, r, err)
		return
	}
	if previous != nil {
		h.media.Delete(*previous)
	}
	respondJSON(w, http.StatusOK, models.AvatarResponse{Avatar: url})
}

// DeleteAvatar clears the avatar.
func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	previous, err := h.db.SetAvatar(r.Context(), viewerID(r), nil)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusUnauthorized, codeNotAuthenticated, detailNotAuthenticated, nil)
			return
		}
		respondInternal(w, r, err)
		return
	}
	if previous != nil {
		h.media.Delete(*previous)
	}
	respondNoContent(w)
}

// DeleteMe removes the viewer's account with everything it owns and revokes
// the token used for the request.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteAccountRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, ve)
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok || !h.checkCurrentPassword(w, r, user, req.CurrentPassword) {
		return
	}

	files, err := h.db.DeleteUser(r.Context(), user.ID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	for _, f := range files {
		h.media.Delete(f)
	}
	if err := h.revokeCurrentToken(r); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to revoke token of deleted account")
	}
	respondNoContent(w)
}
