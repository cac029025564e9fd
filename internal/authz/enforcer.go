// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package authz

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/larder/internal/cache"
	"github.com/tomtom215/larder/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Roles.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleOwner     = "owner"
)

// Objects.
const (
	ObjectRecipe = "recipe"
)

// Actions.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Decision is the outcome of a permission check.
type Decision int

const (
	// Allowed permits the action.
	Allowed Decision = iota
	// Unauthenticated denies an anonymous caller; logging in may help.
	Unauthenticated
	// Forbidden denies an authenticated caller.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// decisionCacheTTL bounds how long a cached decision is trusted. The policy
// never changes at runtime, so this only limits memory held by the cache.
const decisionCacheTTL = time.Hour

// Enforcer wraps the Casbin enforcer.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *cache.Cache[string, bool]
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{
		enforcer: enforcer,
		cache:    cache.New[string, bool]("authz", decisionCacheTTL),
	}, nil
}

// loadPolicy parses policy CSV lines ("p, sub, obj, act" and "g, sub, role").
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) != 4 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Enforce reports whether role may perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	key := role + "|" + object + "|" + action
	if allowed, ok := e.cache.Get(key); ok {
		return allowed, nil
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	e.cache.Set(key, allowed)
	metrics.RecordAuthzDecision(role, object, action, allowed)
	return allowed, nil
}

// RoleFor derives the caller's role for a resource owned by ownerID.
// viewerID is 0 for anonymous callers; ownerID is 0 when the resource does
// not exist yet.
func RoleFor(viewerID, ownerID int64) string {
	switch {
	case viewerID == 0:
		return RoleAnonymous
	case ownerID != 0 && viewerID == ownerID:
		return RoleOwner
	default:
		return RoleUser
	}
}

// Check decides whether viewerID may perform action on a recipe authored by
// authorID. Enforcement errors deny.
func (e *Enforcer) Check(viewerID, authorID int64, action string) Decision {
	role := RoleFor(viewerID, authorID)
	allowed, err := e.Enforce(role, ObjectRecipe, action)
	if err == nil && allowed {
		return Allowed
	}
	if role == RoleAnonymous {
		return Unauthenticated
	}
	return Forbidden
}
