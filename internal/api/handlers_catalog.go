// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"net/http"
	"strings"
)

// ListTags returns every tag, unpaginated.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.ListTags(r.Context())
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
		return
	}
	tag, err := h.db.GetTag(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if tag == nil {
		respondNotFound(w, r)
		return
	}
	respondJSON(w, http.StatusOK, tag)
}

// ListIngredients returns the catalog, optionally narrowed to names
// starting with ?name= (case-insensitive).
func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("name"))
	ingredients, err := h.db.ListIngredients(r.Context(), prefix)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ingredients)
}

func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondNotFound(w, r)
		return
	}
	ingredient, err := h.db.GetIngredient(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if ingredient == nil {
		respondNotFound(w, r)
		return
	}
	respondJSON(w, http.StatusOK, ingredient)
}
