package usecase

import (
	"context"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"golang.org/x/sync/singleflight"
)

// pageLoader fetches product pages through the page cache so the price and
// size resolvers download each page once per run
type pageLoader struct {
	fetcher domain.Fetcher
	cache   domain.PageCache
	group   singleflight.Group
}

func newPageLoader(fetcher domain.Fetcher, cache domain.PageCache) *pageLoader {
	return &pageLoader{fetcher: fetcher, cache: cache}
}

// load returns the 2xx page at url or the fetch error
func (l *pageLoader) load(ctx context.Context, url string) (*domain.Page, error) {
	if l.cache != nil {
		if page, err := l.cache.Get(ctx, url); err == nil {
			return page, nil
		}
	}

	v, err, _ := l.group.Do(url, func() (any, error) {
		page, err := domain.FetchOK(ctx, l.fetcher, url)
		if err != nil {
			return nil, err
		}
		if l.cache != nil {
			_ = l.cache.Set(ctx, url, page)
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Page), nil
}

// cached returns the page at url only when it is already in the cache
func (l *pageLoader) cached(ctx context.Context, url string) *domain.Page {
	if l.cache == nil {
		return nil
	}
	page, err := l.cache.Get(ctx, url)
	if err != nil {
		return nil
	}
	return page
}
