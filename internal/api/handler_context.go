// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/larder/internal/auth"
	"github.com/tomtom215/larder/internal/authz"
	"github.com/tomtom215/larder/internal/logging"
)

// viewerID returns the authenticated user's id, 0 when anonymous.
func viewerID(r *http.Request) int64 {
	return auth.UserIDFromContext(r.Context())
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// authorize checks a recipe action for the current viewer against the
// recipe's author (0 for a recipe that does not exist yet). On denial it has
// already answered 401 or 403.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, action string, authorID int64) bool {
	viewer := viewerID(r)
	switch decision := h.enforcer.Check(viewer, authorID, action); decision {
	case authz.Allowed:
		return true
	case authz.Unauthenticated:
		respondUnauthorized(w, r)
	default:
		logging.Ctx(r.Context()).Debug().
			Int64("author_id", authorID).
			Str("action", action).
			Stringer("decision", decision).
			Msg("Recipe action denied")
		respondError(w, r, http.StatusForbidden, codeForbidden, detailForbidden, nil)
	}
	return false
}

// respondUnauthorized answers 401 for an anonymous viewer. A token that was
// sent but rejected is reported as INVALID_TOKEN, matching auth.Required.
func respondUnauthorized(w http.ResponseWriter, r *http.Request) {
	if auth.AuthErrorFromContext(r.Context()) != nil {
		respondError(w, r, http.StatusUnauthorized, codeInvalidToken, detailInvalidToken, nil)
		return
	}
	respondError(w, r, http.StatusUnauthorized, codeNotAuthenticated, detailNotAuthenticated, nil)
}
