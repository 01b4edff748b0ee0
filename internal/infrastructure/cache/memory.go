package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

const (
	defaultSize = 256
	defaultTTL  = 10 * time.Minute
)

// PageCache is a thread-safe, size-bounded page cache with TTL support.
// It lives for a single scrape run so the price and size resolvers share
// one download of each product page.
type PageCache struct {
	lru *expirable.LRU[string, *domain.Page]
}

// NewPageCache creates a new in-memory page cache. Non-positive arguments
// fall back to defaults.
func NewPageCache(size int, ttl time.Duration) *PageCache {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PageCache{lru: expirable.NewLRU[string, *domain.Page](size, nil, ttl)}
}

// Get retrieves a page from the cache
func (c *PageCache) Get(ctx context.Context, url string) (*domain.Page, error) {
	page, ok := c.lru.Get(url)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return page, nil
}

// Set stores a page in the cache. Non-2xx pages are not cached so a later
// resolver gets a fresh attempt.
func (c *PageCache) Set(ctx context.Context, url string, page *domain.Page) error {
	if !page.OK() {
		return nil
	}
	c.lru.Add(url, page)
	return nil
}

// Clear removes all pages from the cache
func (c *PageCache) Clear(ctx context.Context) error {
	c.lru.Purge()
	return nil
}
