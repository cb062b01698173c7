// ABOUTME: Read-through cache of role -> capability mappings from the mirror store
// ABOUTME: Single-flight cold start, explicit Refresh, failures surfaced not masked

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/openlumi/wpgate/internal/wpdb"
)

// ErrUninitialized is returned by capability queries when the cache has no
// data because its load failed. It always wraps the load failure, so a
// caller can tell "store unavailable" apart from "role has no capabilities";
// an empty set is never used to report an outage.
var ErrUninitialized = errors.New("capability cache not initialized")

// CapabilityCache holds the role -> capability mapping loaded from the
// mirror. Reads are lock-free except for an RWMutex read lock once the
// cache is populated. Cold-start loads collapse into a single query via
// singleflight; there is no automatic expiry, Refresh is the only way to
// pick up host-side role edits (typically wired to SIGHUP).
type CapabilityCache struct {
	store  wpdb.Store
	logger *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	roles   map[string]wpdb.RoleCaps
	loadErr error // last failed load; nil once a load has succeeded
}

// NewCapabilityCache creates an empty cache backed by the given store.
// The first capability query triggers the load; call Refresh at startup to
// fail fast instead.
func NewCapabilityCache(store wpdb.Store) *CapabilityCache {
	return &CapabilityCache{
		store:  store,
		logger: slog.Default().With("component", "caps"),
	}
}

// Refresh reloads the role mapping from the store, replacing the cached
// data on success. On failure the previous data is kept if any existed;
// a failed first load leaves the cache in an error state that every query
// reports until a later Refresh succeeds.
func (c *CapabilityCache) Refresh(ctx context.Context) error {
	roles, err := c.store.RoleCapabilities(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.roles == nil {
			c.loadErr = err
		}
		return fmt.Errorf("loading role capabilities: %w", err)
	}

	c.roles = roles
	c.loadErr = nil
	c.logger.Info("capability cache refreshed", "roles", len(roles))
	return nil
}

// ensure returns the cached mapping, loading it on first use. Concurrent
// cold callers converge on one underlying query and all observe its result.
func (c *CapabilityCache) ensure(ctx context.Context) (map[string]wpdb.RoleCaps, error) {
	c.mu.RLock()
	roles, loadErr := c.roles, c.loadErr
	c.mu.RUnlock()
	if roles != nil {
		return roles, nil
	}
	if loadErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUninitialized, loadErr)
	}

	_, err, _ := c.group.Do("load", func() (interface{}, error) {
		return nil, c.Refresh(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUninitialized, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles, nil
}

// CapabilitiesFor returns the union of granted capabilities across the given
// roles. Duplicates collapse; only true-flagged capabilities are included.
// Unknown roles contribute nothing. An uninitialized cache returns an error,
// never an empty set.
func (c *CapabilityCache) CapabilitiesFor(ctx context.Context, roles ...string) (map[string]bool, error) {
	mapping, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}

	union := make(map[string]bool)
	for _, role := range roles {
		rc, ok := mapping[role]
		if !ok {
			c.logger.Debug("unknown role", "role", role)
			continue
		}
		for capability, granted := range rc.Capabilities {
			if granted {
				union[capability] = true
			}
		}
	}
	return union, nil
}

// HasCapability reports whether a single role grants the named capability.
func (c *CapabilityCache) HasCapability(ctx context.Context, role, capability string) (bool, error) {
	mapping, err := c.ensure(ctx)
	if err != nil {
		return false, err
	}
	rc, ok := mapping[role]
	if !ok {
		return false, nil
	}
	return rc.Capabilities[capability], nil
}

// Ready reports whether the cache holds data. The health endpoint uses it.
func (c *CapabilityCache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles != nil
}
