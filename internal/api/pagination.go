// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/larder/internal/models"
)

// pageRequest is a validated page/limit pair.
type pageRequest struct {
	page  int
	limit int
}

func (p pageRequest) offset() int {
	return (p.page - 1) * p.limit
}

// lastPage is the number of the last page for total items. An empty list
// still has page 1.
func (p pageRequest) lastPage(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.limit - 1) / p.limit
}

// parsePage reads page and limit. A malformed limit falls back to the
// default and a large one is capped; a malformed page is invalid.
func (h *Handler) parsePage(r *http.Request) (pageRequest, bool) {
	q := r.URL.Query()
	p := pageRequest{page: 1, limit: h.config.API.DefaultPageSize}

	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			p.limit = min(limit, h.config.API.MaxPageSize)
		}
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, false
		}
		p.page = page
	}
	return p, true
}

// newPage builds the list envelope with absolute next and previous links.
// It reports false when the requested page lies past the last one.
func newPage[T any](base string, r *http.Request, p pageRequest, total int, results []T) (*models.Page[T], bool) {
	last := p.lastPage(total)
	if p.page > last {
		return nil, false
	}
	if results == nil {
		results = []T{}
	}

	page := &models.Page[T]{Count: total, Results: results}
	if p.page < last {
		next := pageURL(base, r, p.page+1)
		page.Next = &next
	}
	if p.page > 1 {
		prev := pageURL(base, r, p.page-1)
		page.Previous = &prev
	}
	return page, true
}

// pageURL rewrites the request URL to point at page. Page 1 drops the
// parameter.
func pageURL(base string, r *http.Request, page int) string {
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	u := url.URL{Path: strings.TrimSuffix(r.URL.Path, "/") + "/", RawQuery: q.Encode()}
	return base + u.RequestURI()
}

// baseURL is server.public_url when configured, otherwise the scheme and
// host the request arrived on.
func (h *Handler) baseURL(r *http.Request) string {
	if h.config.Server.PublicURL != "" {
		return strings.TrimSuffix(h.config.Server.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// respondPage answers with the envelope, or 404 for a page past the end.
func respondPage[T any](h *Handler, w http.ResponseWriter, r *http.Request, p pageRequest, total int, results []T) {
	page, ok := newPage(h.baseURL(r), r, p, total, results)
	if !ok {
		respondError(w, r, http.StatusNotFound, codeNotFound, detailInvalidPage, nil)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
