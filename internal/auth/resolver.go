// ABOUTME: Resolves a verified user ID into a full Identity
// ABOUTME: One profile lookup, one roles lookup, capability union via the cache

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openlumi/wpgate/internal/wpdb"
)

// ErrIdentityNotFound is returned when a verified cookie points at a user ID
// with no profile row. Callers treat it as unauthenticated but must not
// swallow it silently: a valid cookie for a nonexistent account means the
// mirror and the issuer disagree.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrStoreUnavailable is returned when resolution fails because the mirror
// cannot be reached. It is deliberately distinct from an unauthenticated
// outcome; the two require different operator responses.
var ErrStoreUnavailable = errors.New("identity store unavailable")

// Resolver turns a user ID from a verified session cookie into an Identity.
type Resolver struct {
	store  wpdb.Store
	caps   *CapabilityCache
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given mirror store and capability
// cache.
func NewResolver(store wpdb.Store, caps *CapabilityCache) *Resolver {
	return &Resolver{
		store:  store,
		caps:   caps,
		logger: slog.Default().With("component", "resolver"),
	}
}

// ResolveLogin resolves the login name carried in a verified session cookie.
// The cookie stores the login, not the primary key, so this maps it first.
func (r *Resolver) ResolveLogin(ctx context.Context, login string) (*Identity, error) {
	userID, err := r.store.UserIDByLogin(ctx, login)
	if errors.Is(err, wpdb.ErrNotFound) {
		return nil, fmt.Errorf("login %s: %w", login, ErrIdentityNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return r.Resolve(ctx, userID)
}

// Resolve loads the profile and roles for userID and computes the permission
// union. Returns ErrIdentityNotFound for a missing profile row and
// ErrStoreUnavailable (wrapped) when the mirror cannot answer.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*Identity, error) {
	profile, err := r.store.UserProfile(ctx, userID)
	if errors.Is(err, wpdb.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrIdentityNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	roles, err := r.store.UserRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	permissions, err := r.caps.CapabilitiesFor(ctx, roles...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	r.logger.Debug("resolved identity", "user_id", userID, "roles", len(roles))
	return &Identity{
		ID:          profile.ID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		Roles:       roles,
		Permissions: permissions,
	}, nil
}
