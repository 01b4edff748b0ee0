package usecase

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

// PriceInput is everything the price tiers may look at for one item
type PriceInput struct {
	Container   *goquery.Selection
	Selectors   domain.Selectors
	ListingHTML string
	Title       string
	ProductURL  string
}

// PriceResolver recovers current and compare-at prices by walking the price
// tiers in precedence order
type PriceResolver struct {
	pages  *pageLoader
	logger *slog.Logger
}

// NewPriceResolver creates a price resolver. cache may be nil.
func NewPriceResolver(fetcher domain.Fetcher, cache domain.PageCache, logger *slog.Logger) *PriceResolver {
	return newPriceResolver(newPageLoader(fetcher, cache), logger)
}

func newPriceResolver(pages *pageLoader, logger *slog.Logger) *PriceResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceResolver{pages: pages, logger: logger}
}

// Resolve returns the best known prices of an item. Listing data is read
// first; the product page is fetched only when a field is still missing. A
// product page that yields both fields replaces the listing data, whether it
// was fetched here or is already cached. An empty quote is a valid outcome.
func (r *PriceResolver) Resolve(ctx context.Context, in PriceInput) domain.PriceQuote {
	q, _ := ListingDOMPrice(in.Container, in.Selectors)

	if q.Price == nil {
		if embedded, ok := EmbeddedJSONPrice(in.ListingHTML, in.Title); ok {
			q = fillGaps(q, embedded)
		}
	}

	if in.ProductURL == "" || r.pages == nil || r.pages.fetcher == nil {
		return q
	}

	var page *domain.Page
	if q.Complete() {
		// no fetch needed, but a page already downloaded for sizes still wins
		if page = r.pages.cached(ctx, in.ProductURL); page == nil {
			return q
		}
	} else {
		var err error
		page, err = r.pages.load(ctx, in.ProductURL)
		if err != nil {
			r.logger.DebugContext(ctx, "product page unavailable for price", "url", in.ProductURL, "err", err)
			return q
		}
	}

	pq, tier, err := ProductPagePrice(page.Body)
	if err != nil {
		r.logger.DebugContext(ctx, "product page parse issues", "url", in.ProductURL, "err", err)
	}
	if tier != "" {
		r.logger.DebugContext(ctx, "product page price", "url", in.ProductURL, "tier", tier)
	}
	if pq.Complete() {
		return pq
	}
	return fillGaps(q, pq)
}
