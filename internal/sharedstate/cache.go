// ABOUTME: LRU cache in front of the mirror's content metadata reads
// ABOUTME: Content rows change rarely; the cache keeps upgrade handshakes off the database

package sharedstate

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openlumi/wpgate/internal/wpdb"
)

// ContentCache caches content metadata by content ID. Only successful
// lookups are cached; not-found and store failures always hit the mirror so
// newly published content appears without an explicit flush.
type ContentCache struct {
	store wpdb.Store
	cache *lru.Cache[string, *wpdb.Content]
}

// NewContentCache creates a cache of the given size over the mirror store.
func NewContentCache(store wpdb.Store, size int) (*ContentCache, error) {
	cache, err := lru.New[string, *wpdb.Content](size)
	if err != nil {
		return nil, fmt.Errorf("creating content cache: %w", err)
	}
	return &ContentCache{store: store, cache: cache}, nil
}

// Content returns metadata for the given content ID, consulting the cache
// first. Implements the httpapi.ContentGetter contract.
func (c *ContentCache) Content(ctx context.Context, contentID string) (*wpdb.Content, error) {
	if cached, ok := c.cache.Get(contentID); ok {
		return cached, nil
	}

	content, err := c.store.ContentInfo(ctx, contentID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(contentID, content)
	return content, nil
}

// Flush drops all cached entries.
func (c *ContentCache) Flush() {
	c.cache.Purge()
}
