package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/stretchr/testify/require"
)

// mockFetcher serves canned bodies by url and 404s everything else
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newMockFetcher(pages map[string]string) *mockFetcher {
	return &mockFetcher{pages: pages, calls: make(map[string]int)}
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++
	if body, ok := m.pages[url]; ok {
		return &domain.Page{URL: url, StatusCode: 200, Body: []byte(body)}, nil
	}
	return &domain.Page{URL: url, StatusCode: 404}, nil
}

func (m *mockFetcher) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// mockCache is a map backed domain.PageCache
type mockCache struct {
	mu     sync.Mutex
	pages  map[string]*domain.Page
	clears int
}

func newMockCache() *mockCache {
	return &mockCache{pages: make(map[string]*domain.Page)}
}

func (c *mockCache) Get(ctx context.Context, url string) (*domain.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pages[url]; ok {
		return p, nil
	}
	return nil, domain.ErrCacheMiss
}

func (c *mockCache) Set(ctx context.Context, url string, page *domain.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[url] = page
	return nil
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func container(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	return parseDoc(t, html).Find(".product-item").First()
}

func deref(p *float64) float64 {
	if p == nil {
		return -1
	}
	return *p
}

func (c *mockCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = make(map[string]*domain.Page)
	c.clears++
	return nil
}
