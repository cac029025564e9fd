// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/metrics"
	"github.com/tomtom215/larder/internal/models"
)

// Error codes written by Required.
const (
	codeNotAuthenticated = "NOT_AUTHENTICATED"
	codeInvalidToken     = "INVALID_TOKEN"
)

// Middleware authenticates requests from their Authorization header.
type Middleware struct {
	jwtManager *JWTManager
	revoked    RevocationStore
}

// NewMiddleware creates the middleware. revoked may be nil, in which case
// logout has no effect on token validity.
func NewMiddleware(jwtManager *JWTManager, revoked RevocationStore) *Middleware {
	return &Middleware{jwtManager: jwtManager, revoked: revoked}
}

// Optional attaches the caller to the context when a valid token is sent.
// Missing or invalid tokens leave the request anonymous; an invalid one is
// recorded with ContextWithAuthError so a later 401 can say so.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.Authenticate(r.Context(), r)
		if err != nil {
			if !errors.Is(err, ErrNoCredentials) {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring invalid token on public route")
				r = r.WithContext(ContextWithAuthError(r.Context(), err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), subject)))
	})
}

// Required rejects requests without a valid token with 401.
func (m *Middleware) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An earlier Optional may already have authenticated the request.
		if subject := SubjectFromContext(r.Context()); subject != nil {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := m.Authenticate(r.Context(), r)
		if err != nil {
			writeUnauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), subject)))
	})
}

func withSubject(ctx context.Context, s *AuthSubject) context.Context {
	ctx = ContextWithSubject(ctx, s)
	return logging.ContextWithUserID(ctx, s.UserID)
}

// Authenticate validates the token on r and checks it against the
// revocation store.
func (m *Middleware) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	token, err := extractToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		if errors.Is(err, ErrExpiredCredentials) {
			metrics.RecordTokenValidation("expired")
			return nil, err
		}
		metrics.RecordTokenValidation("invalid")
		return nil, errors.Join(ErrInvalidCredentials, err)
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail closed: a token we cannot check is not trusted.
			metrics.RecordTokenValidation("error")
			return nil, errors.Join(ErrInvalidCredentials, err)
		}
		if revoked {
			metrics.RecordTokenValidation("revoked")
			return nil, ErrRevokedCredentials
		}
	}

	subject, err := SubjectFromClaims(claims)
	if err != nil {
		metrics.RecordTokenValidation("invalid")
		return nil, errors.Join(ErrInvalidCredentials, err)
	}
	metrics.RecordTokenValidation("valid")
	return subject, nil
}

// extractToken accepts "Token <jwt>" and "Bearer <jwt>".
func extractToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoCredentials
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", ErrInvalidCredentials
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidCredentials
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return token, nil
	default:
		return "", ErrInvalidCredentials
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	body := models.APIError{
		Detail: "Authentication credentials were not provided.",
		Code:   codeNotAuthenticated,
	}
	if !errors.Is(err, ErrNoCredentials) {
		body.Detail = "Invalid token."
		body.Code = codeInvalidToken
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Token")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write unauthorized response")
	}
}
