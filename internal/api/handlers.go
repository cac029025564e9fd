// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"errors"
	"time"

	"github.com/tomtom215/larder/internal/auth"
	"github.com/tomtom215/larder/internal/authz"
	"github.com/tomtom215/larder/internal/cache"
	"github.com/tomtom215/larder/internal/config"
	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/media"
)

// jsonBodyOverhead is the allowance on top of the base64-inflated image
// size for the other fields of a request body.
const jsonBodyOverhead = 64 << 10

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_catalog.go: tags and ingredients
//   - handlers_recipes.go: recipe CRUD
//   - handlers_recipe_actions.go: favorites, cart, short links, CSV export
//   - handlers_users.go: registration, profiles, password, avatar
//   - handlers_subscriptions.go: follows
//   - handlers_auth.go: token login and logout
//   - handlers_health.go: health check
type Handler struct {
	db         *database.DB
	config     *config.Config
	jwtManager *auth.JWTManager
	revoked    auth.RevocationStore
	enforcer   *authz.Enforcer
	media      *media.Store
	events     events.Publisher
	shortLinks *cache.Cache[string, int64]

	maxBodyBytes int64
	startTime    time.Time
}

// Dependencies are the collaborators of a Handler. Events may be nil, in
// which case events are discarded.
type Dependencies struct {
	DB         *database.DB
	Config     *config.Config
	JWTManager *auth.JWTManager
	Revoked    auth.RevocationStore
	Enforcer   *authz.Enforcer
	Media      *media.Store
	Events     events.Publisher
	ShortLinks *cache.Cache[string, int64]
}

// NewHandler creates the API handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.DB == nil:
		return nil, errors.New("api: database is required")
	case deps.Config == nil:
		return nil, errors.New("api: config is required")
	case deps.JWTManager == nil || deps.Revoked == nil:
		return nil, errors.New("api: token manager and revocation store are required")
	case deps.Enforcer == nil:
		return nil, errors.New("api: enforcer is required")
	case deps.Media == nil:
		return nil, errors.New("api: media store is required")
	}

	publisher := deps.Events
	if publisher == nil {
		publisher = events.Discard
	}
	shortLinks := deps.ShortLinks
	if shortLinks == nil {
		shortLinks = cache.New[string, int64]("short_links", deps.Config.API.ShortLinkCacheTTL)
	}

	// base64 inflates by 4/3.
	maxBody := deps.Config.Media.MaxUploadBytes/3*4 + jsonBodyOverhead

	return &Handler{
		db:           deps.DB,
		config:       deps.Config,
		jwtManager:   deps.JWTManager,
		revoked:      deps.Revoked,
		enforcer:     deps.Enforcer,
		media:        deps.Media,
		events:       publisher,
		shortLinks:   shortLinks,
		maxBodyBytes: maxBody,
		startTime:    time.Now(),
	}, nil
}
