package links

import (
	"sync"

	"github.com/linklet/linklet/pkg/linklet/models"
)

// ListingCache memoises per-owner dashboard listings. Mutations invalidate
// the owner's entry after a successful persist so the next listing
// re-reads the store.
type ListingCache struct {
	mu      sync.RWMutex
	byOwner map[string][]models.Link
}

// NewListingCache returns an empty cache.
func NewListingCache() *ListingCache {
	return &ListingCache{byOwner: make(map[string][]models.Link)}
}

// Get returns the cached listing for ownerID, if any.
func (c *ListingCache) Get(ownerID string) ([]models.Link, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	links, ok := c.byOwner[ownerID]
	return links, ok
}

// Put stores the listing for ownerID.
func (c *ListingCache) Put(ownerID string, links []models.Link) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byOwner[ownerID] = links
}

// Invalidate drops the cached listing for ownerID.
func (c *ListingCache) Invalidate(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byOwner, ownerID)
}
