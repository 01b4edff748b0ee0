package usecase

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

const (
	defaultMaxItemsPerPage = 50
	minLinkTitleLen        = 5
)

var fallbackTitleSelectors = []string{"h3", "h2", ".card-title", `[data-testid="product-title"]`}

const urlNormalization = purell.FlagsSafe |
	purell.FlagRemoveFragment |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagSortQuery

// listingItem is a candidate together with the listing markup it came from
type listingItem struct {
	container *goquery.Selection
	rawTitle  string
	candidate *domain.ProductCandidate
}

// extractListing splits a listing page into item containers, capped at
// maxItems, and reads everything available directly from each container
func extractListing(doc *goquery.Document, target domain.WebsiteTarget, maxItems int, scrapedAt time.Time, runID string) []listingItem {
	if maxItems <= 0 {
		maxItems = defaultMaxItemsPerPage
	}
	sel := target.Selectors
	base := target.BaseURL
	if base == "" {
		base = target.ListingURL
	}

	containers := doc.Find(sel.ItemContainer)
	if containers.Length() > maxItems {
		containers = containers.Slice(0, maxItems)
	}

	items := make([]listingItem, 0, containers.Length())
	containers.Each(func(_ int, s *goquery.Selection) {
		title := extractTitle(s, sel.Title)
		productURL := ResolveURL(base, extractHref(s, sel.URL))

		items = append(items, listingItem{
			container: s,
			rawTitle:  title,
			candidate: &domain.ProductCandidate{
				Title:         EnhanceTitle(s, title, productURL),
				URL:           productURL,
				DiscountLabel: firstText(s, splitSelectors(sel.Discount)),
				ImageURL:      ResolveURL(base, extractImage(s, sel.Image)),
				Sizes:         DirectSizes(s),
				Website:       target.Name,
				ScrapedAt:     scrapedAt,
				RunID:         runID,
			},
		})
	})
	return items
}

// extractTitle tries the configured chain, then generic headings, then the
// link text when it is long enough to be a name
func extractTitle(s *goquery.Selection, chain string) string {
	if title := firstText(s, append(splitSelectors(chain), fallbackTitleSelectors...)); title != "" {
		return title
	}
	if text := collapseSpace(s.Find("a").First().Text()); len(text) > minLinkTitleLen {
		return text
	}
	return ""
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := collapseSpace(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractHref(s *goquery.Selection, chain string) string {
	for _, sel := range splitSelectors(chain) {
		if href, ok := s.Find(sel).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return href
		}
	}
	if href, ok := s.Attr("href"); ok {
		return href
	}
	return ""
}

func extractImage(s *goquery.Selection, chain string) string {
	for _, sel := range splitSelectors(chain) {
		img := s.Find(sel).First()
		if img.Length() == 0 {
			continue
		}
		src, _ := img.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			src, _ = img.Attr("data-src")
		}
		if src = strings.TrimSpace(src); src != "" {
			return src
		}
	}
	return ""
}

// ResolveURL makes ref absolute against base and canonicalises it. It returns
// "" when ref is empty or cannot be made absolute.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "javascript:") {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !r.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return ""
		}
		r = b.ResolveReference(r)
	}
	return purell.NormalizeURL(r, urlNormalization)
}
