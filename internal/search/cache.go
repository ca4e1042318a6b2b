package search

import (
	"context"
	"sync"
)

// IndexCache holds a snapshot of the provisioned index names. The snapshot
// can go stale as soon as it is taken; callers must Refresh before any
// operation where staleness matters. The upsert path never consults it; it
// refetches ids directly.
type IndexCache struct {
	client *Client

	mu    sync.RWMutex
	names []string
}

func NewIndexCache(client *Client) *IndexCache {
	return &IndexCache{client: client}
}

// Refresh refetches the index list and returns the new snapshot.
func (c *IndexCache) Refresh(ctx context.Context) ([]string, error) {
	names, err := c.client.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.names = names
	c.mu.Unlock()

	return names, nil
}

// Names returns the last snapshot without refetching.
func (c *IndexCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
