package domain

import (
	"math"
	"time"
)

// Currency sanity bounds applied to every extracted amount.
const (
	MinPlausiblePrice = 0.01
	MaxPlausiblePrice = 10000.0
)

// ProductCandidate is one extracted product record flowing through the pipeline.
// It is created per scrape pass, filled in by the resolvers, validated once and
// then handed to storage without further mutation.
type ProductCandidate struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Price         *float64  `json:"price,omitempty"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	DiscountLabel string    `json:"discountLabel,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Sizes         []string  `json:"sizes"`
	Website       string    `json:"website"`
	ScrapedAt     time.Time `json:"scrapedAt"`
	RunID         string    `json:"runId,omitempty"`
}

// Discount derives the numeric discount of the candidate.
func (c *ProductCandidate) Discount() DiscountInfo {
	return CalculateDiscount(c.Price, c.OriginalPrice)
}

// IsDiscounted reports whether the candidate belongs in a sale listing: either a
// compare-at price above the current price or a non-empty discount badge.
func (c *ProductCandidate) IsDiscounted() bool {
	return c.Discount().HasDiscount || c.DiscountLabel != ""
}

// PriceQuote is the output of a single price extraction tier.
type PriceQuote struct {
	Price         *float64
	OriginalPrice *float64
}

// Complete reports whether both fields were recovered.
func (q PriceQuote) Complete() bool {
	return q.Price != nil && q.OriginalPrice != nil
}

// Empty reports whether neither field was recovered.
func (q PriceQuote) Empty() bool {
	return q.Price == nil && q.OriginalPrice == nil
}

// Selectors are the CSS selectors used for direct extraction from a listing page.
// Title and Price may hold comma separated chains that are tried in order.
type Selectors struct {
	ItemContainer string `mapstructure:"item_container" json:"item_container"`
	Title         string `mapstructure:"title" json:"title"`
	Price         string `mapstructure:"price" json:"price"`
	OriginalPrice string `mapstructure:"original_price" json:"original_price"`
	Discount      string `mapstructure:"discount" json:"discount"`
	URL           string `mapstructure:"url" json:"url"`
	Image         string `mapstructure:"image" json:"image"`
}

// DefaultSelectors fill any selector a website target leaves empty.
var DefaultSelectors = Selectors{
	ItemContainer: ".product-item",
	Title:         ".product-title",
	Price:         ".price",
	OriginalPrice: ".original-price",
	Discount:      ".discount",
	URL:           "a",
	Image:         "img",
}

// WebsiteTarget describes one storefront listing to scrape.
type WebsiteTarget struct {
	Name       string
	BaseURL    string
	ListingURL string
	Selectors  Selectors
}

// Page is the result of a fetch. Non-2xx pages are still pages.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (p *Page) OK() bool {
	return p != nil && p.StatusCode >= 200 && p.StatusCode < 300
}

// DiscountInfo is the derived discount of a price pair.
type DiscountInfo struct {
	HasDiscount bool    `json:"hasDiscount"`
	Percent     float64 `json:"discountPercent"`
	Savings     float64 `json:"savingsAmount"`
}

// CalculateDiscount returns percent (1 decimal) and savings (2 decimals) when the
// original price is strictly greater than the current price.
func CalculateDiscount(price, original *float64) DiscountInfo {
	if price == nil || original == nil || *original <= *price || *original <= 0 {
		return DiscountInfo{}
	}
	savings := *original - *price
	return DiscountInfo{
		HasDiscount: true,
		Percent:     math.Round(savings / *original * 1000) / 10,
		Savings:     math.Round(savings*100) / 100,
	}
}

// InPriceBounds reports whether v passes the currency sanity bound.
func InPriceBounds(v float64) bool {
	return v >= MinPlausiblePrice && v <= MaxPlausiblePrice
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
