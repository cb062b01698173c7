// ABOUTME: Tests for the capability cache
// ABOUTME: Union semantics, single-flight cold start, failure surfacing, refresh

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlumi/wpgate/internal/wpdb"
)

func setupCapsStore() *wpdb.MockStore {
	store := wpdb.NewMockStore()
	store.AddRole("administrator", "edit_posts", "edit_h5p_contents", "manage_options")
	store.AddRole("editor", "edit_posts", "edit_h5p_contents")
	store.AddRole("subscriber", "read")
	return store
}

func TestCapabilityCache_Union(t *testing.T) {
	cache := NewCapabilityCache(setupCapsStore())
	ctx := context.Background()

	// Overlapping capability names collapse to a single entry.
	caps, err := cache.CapabilitiesFor(ctx, "editor", "subscriber")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"edit_posts":        true,
		"edit_h5p_contents": true,
		"read":              true,
	}, caps)

	// Union of A and B equals the merge of the individual sets.
	capsA, err := cache.CapabilitiesFor(ctx, "editor")
	require.NoError(t, err)
	capsB, err := cache.CapabilitiesFor(ctx, "subscriber")
	require.NoError(t, err)
	merged := map[string]bool{}
	for c := range capsA {
		merged[c] = true
	}
	for c := range capsB {
		merged[c] = true
	}
	assert.Equal(t, merged, caps)
}

func TestCapabilityCache_UnknownRole(t *testing.T) {
	cache := NewCapabilityCache(setupCapsStore())

	caps, err := cache.CapabilitiesFor(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestCapabilityCache_HasCapability(t *testing.T) {
	cache := NewCapabilityCache(setupCapsStore())
	ctx := context.Background()

	has, err := cache.HasCapability(ctx, "editor", "edit_h5p_contents")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = cache.HasCapability(ctx, "subscriber", "edit_h5p_contents")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCapabilityCache_SingleFlight(t *testing.T) {
	store := setupCapsStore()
	store.SetLoadDelay(50 * time.Millisecond)
	cache := NewCapabilityCache(store)

	const callers = 12
	var wg sync.WaitGroup
	results := make([]map[string]bool, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.CapabilitiesFor(context.Background(), "editor")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 1, store.LoadCalls(), "concurrent cold callers must share one load")
}

func TestCapabilityCache_FailedInitSurfaces(t *testing.T) {
	store := setupCapsStore()
	store.SetErr(wpdb.ErrUnavailable)
	cache := NewCapabilityCache(store)
	ctx := context.Background()

	// The failure must be reported, not returned as an empty set.
	_, err := cache.CapabilitiesFor(ctx, "editor")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, err, wpdb.ErrUnavailable)

	// Subsequent queries keep reporting the failure state.
	_, err = cache.HasCapability(ctx, "editor", "read")
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.False(t, cache.Ready())

	// An explicit Refresh after recovery clears it.
	store.SetErr(nil)
	require.NoError(t, cache.Refresh(ctx))
	caps, err := cache.CapabilitiesFor(ctx, "editor")
	require.NoError(t, err)
	assert.True(t, caps["edit_posts"])
	assert.True(t, cache.Ready())
}

func TestCapabilityCache_RefreshKeepsOldDataOnFailure(t *testing.T) {
	store := setupCapsStore()
	cache := NewCapabilityCache(store)
	ctx := context.Background()

	require.NoError(t, cache.Refresh(ctx))

	store.SetErr(errors.New("connection reset"))
	require.Error(t, cache.Refresh(ctx))

	// Stale data beats a dead cache while the store is down.
	caps, err := cache.CapabilitiesFor(ctx, "subscriber")
	require.NoError(t, err)
	assert.True(t, caps["read"])
}
