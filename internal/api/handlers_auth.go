// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/larder/internal/auth"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/metrics"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/validation"
)

// Login exchanges an email and password for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if ve := validation.ValidateStruct(&req); ve != nil {
		metrics.RecordLoginAttempt("invalid_request")
		respondValidation(w, ve)
		return
	}

	ctx := r.Context()
	user, err := h.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if user == nil {
		metrics.RecordLoginAttempt("unknown_user")
		respondBadRequest(w, r, detailBadCredentials)
		return
	}
	match, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if !match {
		metrics.RecordLoginAttempt("bad_password")
		logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("Login failed")
		respondBadRequest(w, r, detailBadCredentials)
		return
	}

	token, _, err := h.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	metrics.RecordLoginAttempt("success")
	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, models.TokenResponse{AuthToken: token})
}

// Logout revokes the token used for the request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.revokeCurrentToken(r); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondNoContent(w)
}

// revokeCurrentToken records the request token's id until it expires.
func (h *Handler) revokeCurrentToken(r *http.Request) error {
	subject := auth.SubjectFromContext(r.Context())
	if subject == nil || subject.TokenID == "" {
		return nil
	}
	if err := h.revoked.Revoke(r.Context(), subject.TokenID, subject.ExpiresAt); err != nil {
		return err
	}
	if size, err := h.revoked.Size(r.Context()); err == nil {
		metrics.SetRevokedTokens(size)
	}
	return nil
}
