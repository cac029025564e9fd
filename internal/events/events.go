// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types. Each is also the topic it is published on.
const (
	RecipeCreated   = "recipe.created"
	RecipeUpdated   = "recipe.updated"
	RecipeDeleted   = "recipe.deleted"
	FavoriteAdded   = "favorite.added"
	FavoriteRemoved = "favorite.removed"
	CartAdded       = "cart.added"
	CartRemoved     = "cart.removed"
	FollowCreated   = "follow.created"
	FollowRemoved   = "follow.removed"
	UserRegistered  = "user.registered"
)

// Types lists every event type.
var Types = []string{
	RecipeCreated, RecipeUpdated, RecipeDeleted,
	FavoriteAdded, FavoriteRemoved,
	CartAdded, CartRemoved,
	FollowCreated, FollowRemoved,
	UserRegistered,
}

// Event is a fact about a committed write.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	// UserID is the acting user.
	UserID int64 `json:"user_id"`

	RecipeID  int64  `json:"recipe_id,omitempty"`
	AuthorID  int64  `json:"author_id,omitempty"`
	ShortLink string `json:"short_link,omitempty"`
}

// New creates an event of type eventType acted by userID.
func New(eventType string, userID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
	}
}

// WithRecipe sets the recipe fields.
func (e Event) WithRecipe(recipeID int64, shortLink string) Event {
	e.RecipeID = recipeID
	e.ShortLink = shortLink
	return e
}

// WithAuthor sets the followed author.
func (e Event) WithAuthor(authorID int64) Event {
	e.AuthorID = authorID
	return e
}

// Validate checks that the event has an id and a known type.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event has no id")
	}
	for _, t := range Types {
		if e.Type == t {
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", e.Type)
}

func (e *Event) marshal() ([]byte, error) {
	return json.Marshal(e)
}

func unmarshal(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher publishes domain events. Implementations must not block the
// caller on consumers and never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}
