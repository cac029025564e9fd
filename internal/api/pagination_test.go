// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/larder/internal/config"
)

func pagingHandler(publicURL string) *Handler {
	return &Handler{config: &config.Config{
		Server: config.ServerConfig{PublicURL: publicURL},
		API:    config.APIConfig{DefaultPageSize: 6, MaxPageSize: 100},
	}}
}

func TestParsePage(t *testing.T) {
	h := pagingHandler("")
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
		wantOK    bool
	}{
		{"", 1, 6, true},
		{"?page=3", 3, 6, true},
		{"?limit=10", 1, 10, true},
		{"?limit=1000", 1, 100, true},
		{"?limit=0", 1, 6, true},
		{"?limit=abc", 1, 6, true},
		{"?page=0", 0, 0, false},
		{"?page=-1", 0, 0, false},
		{"?page=last", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p, ok := h.parsePage(httptest.NewRequest("GET", "/api/recipes/"+tt.query, nil))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (p.page != tt.wantPage || p.limit != tt.wantLimit) {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d", p.page, p.limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestPageRequest_Bounds(t *testing.T) {
	p := pageRequest{page: 3, limit: 6}
	if p.offset() != 12 {
		t.Errorf("offset = %d, want 12", p.offset())
	}
	for total, want := range map[int]int{0: 1, 1: 1, 6: 1, 7: 2, 13: 3} {
		if got := p.lastPage(total); got != want {
			t.Errorf("lastPage(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestNewPage_Links(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/recipes/?tags=lunch&page=2&limit=2", nil)
	page, ok := newPage("http://example.com", r, pageRequest{page: 2, limit: 2}, 5, []int{3, 4})
	if !ok {
		t.Fatal("page 2 of 3 should exist")
	}
	if page.Next == nil || *page.Next != "http://example.com/api/recipes/?limit=2&page=3&tags=lunch" {
		t.Errorf("next = %v", page.Next)
	}
	if page.Previous == nil || *page.Previous != "http://example.com/api/recipes/?limit=2&tags=lunch" {
		t.Errorf("previous = %v", page.Previous)
	}

	if _, ok := newPage("http://example.com", r, pageRequest{page: 4, limit: 2}, 5, []int{}); ok {
		t.Error("page past the end should be rejected")
	}

	empty, ok := newPage[int]("http://example.com", r, pageRequest{page: 1, limit: 2}, 0, nil)
	if !ok || empty.Results == nil || empty.Next != nil || empty.Previous != nil {
		t.Errorf("empty page = %+v, ok = %v", empty, ok)
	}
}

func TestPageURL_AddsTrailingSlash(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/users?limit=1", nil)
	if got := pageURL("http://h", r, 2); got != "http://h/api/users/?limit=1&page=2" {
		t.Errorf("pageURL = %q", got)
	}
}

func TestBaseURL(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/recipes/", nil)
	r.Host = "larder.local:8080"

	if got := pagingHandler("").baseURL(r); got != "http://larder.local:8080" {
		t.Errorf("plain = %q", got)
	}
	if got := pagingHandler("https://larder.example.org/").baseURL(r); got != "https://larder.example.org" {
		t.Errorf("public url = %q", got)
	}

	r.Header.Set("X-Forwarded-Proto", "https")
	if got := pagingHandler("").baseURL(r); got != "https://larder.local:8080" {
		t.Errorf("forwarded = %q", got)
	}

	r.Header.Del("X-Forwarded-Proto")
	r.TLS = &tls.ConnectionState{}
	if got := pagingHandler("").baseURL(r); got != "https://larder.local:8080" {
		t.Errorf("tls = %q", got)
	}
}
