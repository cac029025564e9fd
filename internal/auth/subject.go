// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package auth

import (
	"context"
	"errors"
	"time"
)

// Standard authentication errors
var (
	// ErrNoCredentials indicates no token was sent.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the token or password was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates the token has expired.
	ErrExpiredCredentials = errors.New("credentials expired")

	// ErrRevokedCredentials indicates the token was logged out.
	ErrRevokedCredentials = errors.New("credentials revoked")
)

// AuthSubject is the authenticated caller of a request.
type AuthSubject struct {
	UserID int64
	Email  string

	// TokenID is the jti of the presented token; logout revokes it.
	TokenID   string
	ExpiresAt time.Time
}

// SubjectFromClaims builds an AuthSubject from validated claims.
func SubjectFromClaims(claims *Claims) (*AuthSubject, error) {
	if claims == nil {
		return nil, ErrInvalidCredentials
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	s := &AuthSubject{
		UserID:  id,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

type contextKey string

const (
	subjectContextKey   contextKey = "auth-subject"
	authErrorContextKey contextKey = "auth-error"
)

// ContextWithSubject stores s in ctx.
func ContextWithSubject(ctx context.Context, s *AuthSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns the authenticated caller, or nil.
func SubjectFromContext(ctx context.Context) *AuthSubject {
	s, _ := ctx.Value(subjectContextKey).(*AuthSubject)
	return s
}

// UserIDFromContext returns the caller's user id, 0 when anonymous.
func UserIDFromContext(ctx context.Context) int64 {
	if s := SubjectFromContext(ctx); s != nil {
		return s.UserID
	}
	return 0
}

// ContextWithAuthError records why a sent token was rejected on a route
// that allows anonymous access.
func ContextWithAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authErrorContextKey, err)
}

// AuthErrorFromContext returns the rejection recorded by Optional, or nil
// when no token was sent or it was accepted.
func AuthErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(authErrorContextKey).(error)
	return err
}
