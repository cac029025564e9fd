// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/larder/internal/models"
)

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", nil, "")
	expectStatus(t, rec, http.StatusOK)

	health := decode[models.HealthStatus](t, rec)
	if health.Status != "healthy" || health.Database != "connected" || health.UptimeSeconds < 0 {
		t.Errorf("health = %+v", health)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRouter_JSONErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/nothing-here/", nil, "")
	expectStatus(t, rec, http.StatusNotFound)
	if body := decode[models.APIError](t, rec); body.Code != codeNotFound {
		t.Errorf("404 body = %+v", body)
	}

	rec = s.do(http.MethodPut, "/api/recipes/", map[string]string{}, "")
	expectStatus(t, rec, http.StatusMethodNotAllowed)
	if body := decode[models.APIError](t, rec); body.Code != codeMethodNotAllowed || body.Detail != `Method "PUT" not allowed.` {
		t.Errorf("405 body = %+v", body)
	}
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/tags/", nil, "")

	rec := s.do(http.MethodGet, "/metrics", nil, "")
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{"api_requests_total", `endpoint="/api/tags"`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestRouter_MediaFiles(t *testing.T) {
	s := newTestServer(t)
	dir := filepath.Join(s.media.Root(), "recipes")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o640); err != nil {
		t.Fatal(err)
	}

	rec := s.do(http.MethodGet, "/media/recipes/a.txt", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "hello" {
		t.Errorf("body = %q", rec.Body.String())
	}

	for _, path := range []string{"/media/recipes/", "/media/recipes", "/media/missing.png", "/media/../go.mod"} {
		if rec := s.do(http.MethodGet, path, nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestRouter_CompressesAPIResponses(t *testing.T) {
	s := newTestServer(t)
	s.createTag("breakfast")

	req := httptest.NewRequest(http.MethodGet, "/api/tags/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(plain), `"slug":"breakfast"`) {
		t.Errorf("decompressed body = %s", plain)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 2
	s := newTestServerWithConfig(t, cfg)

	expectStatus(t, s.do(http.MethodGet, "/api/tags/", nil, ""), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/tags/", nil, ""), http.StatusOK)
	rec := s.do(http.MethodGet, "/api/tags/", nil, "")
	expectStatus(t, rec, http.StatusTooManyRequests)
	if body := decode[models.APIError](t, rec); body.Code != codeRateLimited {
		t.Errorf("code = %q", body.Code)
	}

	// Health checks are outside the API budget.
	expectStatus(t, s.do(http.MethodGet, "/health", nil, ""), http.StatusOK)
}
