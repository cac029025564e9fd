// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/larder/internal/models"
)

func newTestMiddleware(t *testing.T) (*Middleware, *JWTManager, *MemoryRevocationStore) {
	t.Helper()
	jwtManager := newTestJWTManager(t)
	store := NewMemoryRevocationStore()
	return NewMiddleware(jwtManager, store), jwtManager, store
}

// echoUser writes the caller's email, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if s := SubjectFromContext(r.Context()); s != nil {
		_, _ = w.Write([]byte(s.Email))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
})

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Token abc", "abc", nil},
		{"Bearer abc", "abc", nil},
		{"token   abc ", "abc", nil},
		{"", "", ErrNoCredentials},
		{"Basic dXNlcjpwYXNz", "", ErrInvalidCredentials},
		{"Token", "", ErrInvalidCredentials},
		{"Token ", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		got, err := extractToken(tt.header)
		if got != tt.want || !errors.Is(err, tt.wantErr) {
			t.Errorf("extractToken(%q) = %q, %v; want %q, %v", tt.header, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestMiddleware_Required(t *testing.T) {
	mw, jwtManager, store := newTestMiddleware(t)
	token, _, _ := jwtManager.GenerateToken(7, "ann@example.com")
	revokedToken, revokedClaims, _ := jwtManager.GenerateToken(7, "ann@example.com")
	if err := store.Revoke(context.Background(), revokedClaims.ID, revokedClaims.ExpiresAt.Time); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantCode   string
	}{
		{"token scheme", "Token " + token, http.StatusOK, "ann@example.com", ""},
		{"bearer scheme", "Bearer " + token, http.StatusOK, "ann@example.com", ""},
		{"missing", "", http.StatusUnauthorized, "", codeNotAuthenticated},
		{"garbage", "Token nope", http.StatusUnauthorized, "", codeInvalidToken},
		{"revoked", "Token " + revokedToken, http.StatusUnauthorized, "", codeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.Required(echoUser).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if rec.Body.String() != tt.wantBody {
					t.Errorf("body = %q", rec.Body.String())
				}
				return
			}
			var apiErr models.APIError
			if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
				t.Fatalf("body is not an APIError: %v", err)
			}
			if apiErr.Code != tt.wantCode || apiErr.Detail == "" {
				t.Errorf("error = %+v, want code %s", apiErr, tt.wantCode)
			}
			if rec.Header().Get("WWW-Authenticate") != "Token" {
				t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_Optional(t *testing.T) {
	mw, jwtManager, _ := newTestMiddleware(t)
	token, _, _ := jwtManager.GenerateToken(7, "ann@example.com")

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Token " + token, "ann@example.com"},
		{"missing", "", "anonymous"},
		{"invalid", "Token nope", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/recipes/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.Optional(echoUser).ServeHTTP(rec, req)
			if rec.Code != http.StatusOK || rec.Body.String() != tt.want {
				t.Errorf("got %d %q, want 200 %q", rec.Code, rec.Body.String(), tt.want)
			}
		})
	}
}

func TestMiddleware_OptionalRecordsRejectedToken(t *testing.T) {
	mw, jwtManager, store := newTestMiddleware(t)
	token, _, _ := jwtManager.GenerateToken(7, "ann@example.com")
	revokedToken, revokedClaims, _ := jwtManager.GenerateToken(7, "ann@example.com")
	if err := store.Revoke(context.Background(), revokedClaims.ID, revokedClaims.ExpiresAt.Time); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", "Token " + token, nil},
		{"missing", "", nil},
		{"garbage", "Token nope", ErrInvalidCredentials},
		{"revoked", "Token " + revokedToken, ErrRevokedCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got error
			next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = AuthErrorFromContext(r.Context())
			})
			req := httptest.NewRequest(http.MethodPost, "/api/recipes/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			mw.Optional(next).ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantErr == nil {
				if got != nil {
					t.Errorf("AuthErrorFromContext() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("AuthErrorFromContext() = %v, want %v", got, tt.wantErr)
			}
		})
	}
}

func TestMiddleware_OptionalThenRequired(t *testing.T) {
	mw, jwtManager, _ := newTestMiddleware(t)
	token, _, _ := jwtManager.GenerateToken(3, "bob@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Token "+token)
	rec := httptest.NewRecorder()
	mw.Optional(mw.Required(echoUser)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "bob@example.com" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	mw, jwtManager, _ := newTestMiddleware(t)
	jwtManager.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	token, _, _ := jwtManager.GenerateToken(3, "bob@example.com")
	jwtManager.now = time.Now

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token "+token)
	if _, err := mw.Authenticate(req.Context(), req); !errors.Is(err, ErrExpiredCredentials) {
		t.Errorf("Authenticate() = %v, want ErrExpiredCredentials", err)
	}
}

func TestUserIDFromContext(t *testing.T) {
	if id := UserIDFromContext(context.Background()); id != 0 {
		t.Errorf("anonymous id = %d", id)
	}
	ctx := ContextWithSubject(context.Background(), &AuthSubject{UserID: 9})
	if id := UserIDFromContext(ctx); id != 9 {
		t.Errorf("id = %d, want 9", id)
	}
	if _, err := SubjectFromClaims(nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SubjectFromClaims(nil) = %v", err)
	}
}
