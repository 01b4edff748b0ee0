package usecase

import (
	"context"
	"log/slog"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

// SizeResolver recovers the in-stock sizes of a product from its page, or
// from its variant feed when the page has no inline variant data
type SizeResolver struct {
	pages  *pageLoader
	logger *slog.Logger
}

// NewSizeResolver creates a size resolver. cache may be nil.
func NewSizeResolver(fetcher domain.Fetcher, cache domain.PageCache, logger *slog.Logger) *SizeResolver {
	return newSizeResolver(newPageLoader(fetcher, cache), logger)
}

func newSizeResolver(pages *pageLoader, logger *slog.Logger) *SizeResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SizeResolver{pages: pages, logger: logger}
}

// Resolve returns the deduplicated, sorted available sizes of productURL.
// nil means no size information.
func (r *SizeResolver) Resolve(ctx context.Context, productURL string) []string {
	if productURL == "" || r.pages == nil || r.pages.fetcher == nil {
		return nil
	}

	page, err := r.pages.load(ctx, productURL)
	if err != nil {
		r.logger.DebugContext(ctx, "product page unavailable for sizes", "url", productURL, "err", err)
	} else {
		sizes, err := InlineVariantSizes(string(page.Body))
		if err != nil {
			r.logger.DebugContext(ctx, "inline variant parse issues", "url", productURL, "tier", "inline-variants", "err", err)
		}
		if len(sizes) > 0 {
			return sizes
		}
	}

	feedURL, err := VariantFeedURL(productURL)
	if err != nil {
		r.logger.DebugContext(ctx, "no variant feed", "url", productURL, "err", err)
		return nil
	}
	feed, err := r.pages.load(ctx, feedURL)
	if err != nil {
		r.logger.DebugContext(ctx, "variant feed unavailable", "url", feedURL, "err", err)
		return nil
	}

	sizes, err := FeedVariantSizes(feed.Body)
	if err != nil {
		r.logger.DebugContext(ctx, "variant feed parse issues", "url", feedURL, "tier", "variant-feed", "err", err)
	}
	return sizes
}
