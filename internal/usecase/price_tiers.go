package usecase

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/titanous/json5"
)

// Listing price fallbacks tried after the configured price selectors.
var (
	fallbackPriceSelectors    = []string{".money", "[data-price]", ".price-current", ".current-price"}
	fallbackOriginalSelectors = []string{".compare-at-price", ".price--compare"}
)

const (
	fuzzyTitleThreshold = 0.92
	titlePrefixLen      = 20

	// inline price keys only count when the amount falls in this band
	genericBandMin = 10.0
	genericBandMax = 2000.0
)

var (
	analyticsProductPattern = regexp.MustCompile(`\{"price":\{"amount":(\d+(?:\.\d+)?),"currencyCode":"[A-Z]{3}"\},"product":\{"title":"((?:[^"\\]|\\.)*)"`)

	klaviyoValue         = `"?(\$?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)"?`
	klaviyoObjectPattern = regexp.MustCompile(`\{[^{}]*\bCompareAtPrice\b[^{}]*\}`)
	klaviyoPriceFirst    = regexp.MustCompile(`\bPrice\b"?\s*:\s*` + klaviyoValue + `\s*,\s*"?\bCompareAtPrice\b"?\s*:\s*` + klaviyoValue)
	klaviyoCompareFirst  = regexp.MustCompile(`\bCompareAtPrice\b"?\s*:\s*` + klaviyoValue + `\s*,\s*"?\bPrice\b"?\s*:\s*` + klaviyoValue)
	klaviyoCompareOnly   = regexp.MustCompile(`\bCompareAtPrice\b"?\s*:\s*` + klaviyoValue)
	klaviyoPriceOnly     = regexp.MustCompile(`\bPrice\b"?\s*:\s*` + klaviyoValue)
	priceClassPattern    = regexp.MustCompile(`class="price[^"]*"[^>]*>\s*\$([\d,]+\.\d{2})`)
	inlineCentsPattern   = regexp.MustCompile(`"price"\s*:\s*(\d+)(?:[^\d.]|$)`)
	inlineAmountPattern  = regexp.MustCompile(`"amount"\s*:\s*"?(\d+(?:\.\d+)?)"?`)
	priceMetaSelector    = `meta[property="og:price:amount"], meta[property="product:price:amount"]`
	jsonLDSelector       = `script[type="application/ld+json"]`
)

// ListingDOMPrice reads the price and compare-at price straight from a listing
// container. Each selector chain is tried in order and the first parseable
// element wins.
func ListingDOMPrice(container *goquery.Selection, sel domain.Selectors) (domain.PriceQuote, bool) {
	var q domain.PriceQuote
	if container == nil {
		return q, false
	}

	priceChain := append(splitSelectors(sel.Price), fallbackPriceSelectors...)
	q.Price = firstPriceIn(container, priceChain)

	originalChain := append(splitSelectors(sel.OriginalPrice), fallbackOriginalSelectors...)
	q.OriginalPrice = firstPriceIn(container, originalChain)

	return q, !q.Empty()
}

func firstPriceIn(container *goquery.Selection, selectors []string) *float64 {
	for _, s := range selectors {
		node := container.Find(s).First()
		if node.Length() == 0 {
			continue
		}
		if attr, ok := node.Attr("data-price"); ok {
			if p := amountPtr(attr, encAuto); p != nil {
				return p
			}
		}
		if v, ok := ParsePriceText(node.Text()); ok {
			return domain.Float(v)
		}
	}
	return nil
}

// EmbeddedJSONPrice looks for the item's price in JSON blobs embedded in the
// listing page, keyed by the item title: the analytics product object, then a
// Shopify product object (price in cents), then the closest analytics title.
// Only the current price is recovered.
func EmbeddedJSONPrice(listingHTML, title string) (domain.PriceQuote, bool) {
	title = strings.TrimSpace(title)
	if listingHTML == "" || title == "" {
		return domain.PriceQuote{}, false
	}

	exact := regexp.MustCompile(`\{"price":\{"amount":(\d+(?:\.\d+)?),"currencyCode":"[A-Z]{3}"\},"product":\{"title":"` + regexp.QuoteMeta(title))
	if m := exact.FindStringSubmatch(listingHTML); m != nil {
		if p := amountPtr(m[1], encDecimal); p != nil {
			return domain.PriceQuote{Price: p}, true
		}
	}

	cents := regexp.MustCompile(`"price":(\d+),[^}]*"title":"` + regexp.QuoteMeta(runePrefix(title, titlePrefixLen)))
	if m := cents.FindStringSubmatch(listingHTML); m != nil {
		if p := amountPtr(m[1], encCents); p != nil {
			return domain.PriceQuote{Price: p}, true
		}
	}

	var titles, amounts []string
	for _, m := range analyticsProductPattern.FindAllStringSubmatch(listingHTML, -1) {
		titles = append(titles, unescapeJSONString(m[2]))
		amounts = append(amounts, m[1])
	}
	if i, _ := NewTitleMatcher(fuzzyTitleThreshold).BestMatch(title, titles); i >= 0 {
		if p := amountPtr(amounts[i], encDecimal); p != nil {
			return domain.PriceQuote{Price: p}, true
		}
	}
	return domain.PriceQuote{}, false
}

type pricePair struct {
	pos      int
	price    *float64
	original *float64
}

// KlaviyoPairPrice reads tracking objects carrying Price and CompareAtPrice.
// Every occurrence on the page is collected in text order; the first pair
// whose compare-at exceeds the price wins, otherwise the first pair is used
// and its compare-at kept only when it is not below the price.
func KlaviyoPairPrice(body string) (domain.PriceQuote, bool, error) {
	var pairs []pricePair
	var errs []error

	for _, loc := range klaviyoObjectPattern.FindAllStringIndex(body, -1) {
		var obj map[string]any
		if err := json5.Unmarshal([]byte(body[loc[0]:loc[1]]), &obj); err != nil {
			errs = append(errs, err)
			continue
		}
		price := klaviyoAmount(obj["Price"])
		if price == nil {
			continue
		}
		pairs = append(pairs, pricePair{pos: loc[0], price: price, original: klaviyoAmount(obj["CompareAtPrice"])})
	}

	for _, m := range klaviyoPriceFirst.FindAllStringSubmatchIndex(body, -1) {
		if price := klaviyoAmount(body[m[2]:m[3]]); price != nil {
			pairs = append(pairs, pricePair{pos: m[0], price: price, original: klaviyoAmount(body[m[4]:m[5]])})
		}
	}
	for _, m := range klaviyoCompareFirst.FindAllStringSubmatchIndex(body, -1) {
		if price := klaviyoAmount(body[m[4]:m[5]]); price != nil {
			pairs = append(pairs, pricePair{pos: m[0], price: price, original: klaviyoAmount(body[m[2]:m[3]])})
		}
	}

	if len(pairs) == 0 {
		// compare-at without an adjacent price: pair it with the first price seen
		c := klaviyoCompareOnly.FindStringSubmatch(body)
		p := klaviyoPriceOnly.FindStringSubmatchIndex(body)
		if c != nil && p != nil {
			if price := klaviyoAmount(body[p[2]:p[3]]); price != nil {
				pairs = append(pairs, pricePair{pos: p[0], price: price, original: klaviyoAmount(c[1])})
			}
		}
	}

	err := parseErr("klaviyo", errs)
	if len(pairs) == 0 {
		return domain.PriceQuote{}, false, err
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })
	for _, pair := range pairs {
		if pair.original != nil && *pair.original > *pair.price {
			return domain.PriceQuote{Price: pair.price, OriginalPrice: pair.original}, true, err
		}
	}

	first := pairs[0]
	q := domain.PriceQuote{Price: first.price}
	if first.original != nil && *first.original >= *first.price {
		q.OriginalPrice = first.original
	}
	return q, true, err
}

// klaviyoAmount decodes a tracking value. A display string with a currency
// sign or thousands separator is dollars; only bare numbers may be cents.
func klaviyoAmount(raw any) *float64 {
	if s, ok := raw.(string); ok && strings.ContainsAny(s, "$,") {
		return amountPtr(s, encDecimal)
	}
	return amountPtr(raw, encAuto)
}

// JSONLDPrice reads the offer price of a schema.org Product from JSON-LD
// blocks. Offers may be an object, a list or nested in an @graph.
func JSONLDPrice(doc *goquery.Document) (domain.PriceQuote, bool, error) {
	if doc == nil {
		return domain.PriceQuote{}, false, nil
	}

	var found *float64
	var errs []error
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			errs = append(errs, err)
			return true
		}
		found = productOfferPrice(data)
		return found == nil
	})

	err := parseErr("json-ld", errs)
	if found == nil {
		return domain.PriceQuote{}, false, err
	}
	return domain.PriceQuote{Price: found}, true, err
}

func productOfferPrice(node any) *float64 {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if p := productOfferPrice(item); p != nil {
				return p
			}
		}
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			if p := productOfferPrice(graph); p != nil {
				return p
			}
		}
		if isProductType(v["@type"]) {
			if p := offerPrice(v["offers"]); p != nil {
				return p
			}
			return productOfferPrice(v["hasVariant"])
		}
	}
	return nil
}

func offerPrice(offers any) *float64 {
	switch o := offers.(type) {
	case []any:
		for _, item := range o {
			if p := offerPrice(item); p != nil {
				return p
			}
		}
	case map[string]any:
		for _, key := range []string{"price", "lowPrice"} {
			if p := amountPtr(o[key], encDecimal); p != nil {
				return p
			}
		}
		return offerPrice(o["offers"])
	}
	return nil
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product" || v == "ProductGroup"
	case []any:
		for _, item := range v {
			if isProductType(item) {
				return true
			}
		}
	}
	return false
}

// GenericPatternPrice is the last resort: price meta tags, price-class markup
// and any inline price-like key. On pages listing several products it can pick
// up a neighbour's price, so it only runs after every other tier.
func GenericPatternPrice(doc *goquery.Document, body string) (domain.PriceQuote, bool) {
	if doc != nil {
		if content, ok := doc.Find(priceMetaSelector).First().Attr("content"); ok {
			if p := amountPtr(content, encDecimal); p != nil {
				return domain.PriceQuote{Price: p}, true
			}
		}
	}

	if m := priceClassPattern.FindStringSubmatch(body); m != nil {
		if p := amountPtr(m[1], encDecimal); p != nil {
			return domain.PriceQuote{Price: p}, true
		}
	}

	for _, m := range inlineCentsPattern.FindAllStringSubmatch(body, -1) {
		if v, ok := parseAmount(m[1], encCents); ok && inGenericBand(v) {
			return domain.PriceQuote{Price: domain.Float(v)}, true
		}
	}
	for _, m := range inlineAmountPattern.FindAllStringSubmatch(body, -1) {
		if v, ok := parseAmount(m[1], encDecimal); ok && inGenericBand(v) {
			return domain.PriceQuote{Price: domain.Float(v)}, true
		}
	}

	return domain.PriceQuote{}, false
}

func inGenericBand(v float64) bool {
	return v >= genericBandMin && v <= genericBandMax
}

// productPageTier is one product page strategy; tiers run in slice order and
// the first one yielding a current price wins.
type productPageTier struct {
	name    string
	extract func(body string, doc *goquery.Document) (domain.PriceQuote, bool, error)
}

var productPageTiers = []productPageTier{
	{name: "klaviyo", extract: func(body string, _ *goquery.Document) (domain.PriceQuote, bool, error) {
		return KlaviyoPairPrice(body)
	}},
	{name: "json-ld", extract: func(_ string, doc *goquery.Document) (domain.PriceQuote, bool, error) {
		return JSONLDPrice(doc)
	}},
	{name: "generic", extract: func(body string, doc *goquery.Document) (domain.PriceQuote, bool, error) {
		q, ok := GenericPatternPrice(doc, body)
		return q, ok, nil
	}},
}

// ProductPagePrice runs the product page tiers over a fetched body. It returns
// the winning tier name ("" when none matched) and any parse errors met on
// the way, which are never fatal.
func ProductPagePrice(body []byte) (domain.PriceQuote, string, error) {
	text := string(body)
	var errs []error

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		errs = append(errs, &domain.ParseError{Tier: "html", Err: err})
	}

	for _, tier := range productPageTiers {
		q, ok, err := tier.extract(text, doc)
		if err != nil {
			errs = append(errs, err)
		}
		if ok && q.Price != nil {
			return q, tier.name, errors.Join(errs...)
		}
	}
	return domain.PriceQuote{}, "", errors.Join(errs...)
}

// fillGaps copies fields of src into the empty fields of dst
func fillGaps(dst, src domain.PriceQuote) domain.PriceQuote {
	if dst.Price == nil {
		dst.Price = src.Price
	}
	if dst.OriginalPrice == nil {
		dst.OriginalPrice = src.OriginalPrice
	}
	return dst
}

func splitSelectors(chain string) []string {
	var out []string
	for _, s := range strings.Split(chain, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseErr(tier string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &domain.ParseError{Tier: tier, Err: errors.Join(errs...)}
}

func runePrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
