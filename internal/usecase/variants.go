package usecase

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/titanous/json5"
)

var inlineVariantPattern = regexp.MustCompile(`\{[^{}]*"?\bavailable\b"?\s*:\s*(?:true|false)[^{}]*\}`)

var optionKeys = []string{"option1", "option2", "option3"}

// variantFeed accepts both the /products/<handle>.json shape and the bare
// variant list of /products/<handle>.js
type variantFeed struct {
	Product *struct {
		Variants []json.RawMessage `json:"variants"`
	} `json:"product"`
	Variants []json.RawMessage `json:"variants"`
}

// InlineVariantSizes reads per-variant availability objects from the scripts
// of a product page. Only variants flagged available contribute a size.
func InlineVariantSizes(body string) ([]string, error) {
	sizes := make(map[string]bool)
	var errs []error

	for _, obj := range inlineVariantPattern.FindAllString(body, -1) {
		var variant map[string]any
		if err := json5.Unmarshal([]byte(obj), &variant); err != nil {
			errs = append(errs, err)
			continue
		}
		if available, _ := variant["available"].(bool); !available {
			continue
		}
		if size, ok := variantSize(variant); ok {
			sizes[size] = true
		}
	}

	return sortedKeys(sizes), parseErr("inline-variants", errs)
}

// FeedVariantSizes reads a structured variant feed. Only variants flagged
// available count, and a known inventory of zero or less disqualifies one; a
// missing or null inventory does not.
func FeedVariantSizes(body []byte) ([]string, error) {
	var feed variantFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, &domain.ParseError{Tier: "variant-feed", Err: err}
	}

	raw := feed.Variants
	if feed.Product != nil && len(feed.Product.Variants) > 0 {
		raw = feed.Product.Variants
	}

	sizes := make(map[string]bool)
	var errs []error
	for _, r := range raw {
		var variant map[string]any
		if err := json.Unmarshal(r, &variant); err != nil {
			errs = append(errs, err)
			continue
		}
		if !feedVariantAvailable(variant) {
			continue
		}
		if size, ok := variantSize(variant); ok {
			sizes[size] = true
		}
	}

	return sortedKeys(sizes), parseErr("variant-feed", errs)
}

func feedVariantAvailable(variant map[string]any) bool {
	if available, _ := variant["available"].(bool); !available {
		return false
	}
	if qty, ok := variant["inventory_quantity"].(float64); ok && qty <= 0 {
		return false
	}
	return true
}

// variantSize returns the first option value that is a size
func variantSize(variant map[string]any) (string, bool) {
	for _, key := range optionKeys {
		value, ok := variant[key].(string)
		if !ok {
			continue
		}
		if value = strings.TrimSpace(value); IsActualSize(value) {
			return value, true
		}
	}
	return "", false
}

// VariantFeedURL maps a product url onto its variant feed: the product path
// with a .json suffix, without query or fragment.
func VariantFeedURL(productURL string) (string, error) {
	u, err := url.Parse(productURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" || u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("no product path in %q", productURL)
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, ".json") {
		u.Path += ".json"
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
