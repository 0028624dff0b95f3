package fetch

import (
	"bytes"
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache wraps a Fetcher and remembers successful bodies and probe results for
// a TTL. Failures are never cached, so a flaky source is retried on the next
// pass (within one pass the resolver never fetches a source twice anyway).
type Cache struct {
	next  Fetcher
	items *gocache.Cache
}

// NewCache wraps next with a TTL cache. Expired entries are purged every 2*ttl.
func NewCache(next Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		next:  next,
		items: gocache.New(ttl, 2*ttl),
	}
}

// Fetch returns a cached body or fetches and stores it.
func (c *Cache) Fetch(ctx context.Context, ref string) ([]byte, error) {
	key := "GET " + ref
	if v, ok := c.items.Get(key); ok {
		if body, ok := v.([]byte); ok {
			return bytes.Clone(body), nil
		}
	}

	body, err := c.next.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.items.SetDefault(key, bytes.Clone(body))
	return body, nil
}

// Probe returns a cached probe result or probes and stores it.
func (c *Cache) Probe(ctx context.Context, ref string) (bool, error) {
	key := "HEAD " + ref
	if v, ok := c.items.Get(key); ok {
		if exists, ok := v.(bool); ok {
			return exists, nil
		}
	}

	exists, err := c.next.Probe(ctx, ref)
	if err != nil {
		return false, err
	}
	c.items.SetDefault(key, exists)
	return exists, nil
}

// Flush drops every cached entry. The server calls it when watched files change.
func (c *Cache) Flush() {
	c.items.Flush()
}

// Len returns the number of cached entries, expired ones included until purge.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Compile-time interface check.
var _ Fetcher = (*Cache)(nil)
