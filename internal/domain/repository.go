package domain

import (
	"context"
	"time"
)

// Fetcher performs politeness-throttled, retried GET requests
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// PageCache stores fetched pages by url so the price and size resolvers share
// one product page download. Clear drops every page once a run ends.
type PageCache interface {
	Get(ctx context.Context, url string) (*Page, error)
	Set(ctx context.Context, url string, page *Page) error
	Clear(ctx context.Context) error
}

// CandidateSink receives validated candidates one at a time. Save reports
// false when the record already exists.
type CandidateSink interface {
	Save(ctx context.Context, candidate *ProductCandidate) (bool, error)
	TouchWebsite(ctx context.Context, target WebsiteTarget, scrapedAt time.Time) error
}

// ProductRepository is the append-only storage of scraped candidates
type ProductRepository interface {
	CandidateSink
	ItemReader
	Close() error
}

// ItemReader exposes stored records to presentation sinks
type ItemReader interface {
	ListItems(ctx context.Context, website string, limit int) ([]StoredItem, error)
	ListDiscounted(ctx context.Context, since time.Time, limit int) ([]StoredItem, error)
	SearchItems(ctx context.Context, query string, limit int) ([]StoredItem, error)
	PriceHistory(ctx context.Context, url string) ([]PricePoint, error)
	Statistics(ctx context.Context) (*SaleStatistics, error)
}
