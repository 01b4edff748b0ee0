package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

// amountEncoding says how a matched number maps onto a currency amount.
// Storefronts mix decimal strings with integer minor units, so the encoding
// is chosen per pattern rather than globally.
type amountEncoding int

const (
	// encDecimal is a plain decimal amount ("49.99", "49")
	encDecimal amountEncoding = iota
	// encCents is an integer in minor units (4999 means 49.99)
	encCents
	// encAuto treats integers of four or more digits as cents and anything
	// with a decimal point as a decimal amount
	encAuto
)

var (
	decimal2Pattern = regexp.MustCompile(`\b(\d+\.\d{2})\b`)
	decimal1Pattern = regexp.MustCompile(`\b(\d+\.\d)\b`)
	integerPattern  = regexp.MustCompile(`\b(\d+)\b`)

	priceNoise = strings.NewReplacer(",", "", "$", "", "USD", "")
)

// ParsePriceText extracts the first plausible amount from display text such
// as "$1,249.00", "Sale price $49.99" or "49 USD".
func ParsePriceText(text string) (float64, bool) {
	cleaned := strings.TrimSpace(priceNoise.Replace(text))
	if cleaned == "" {
		return 0, false
	}

	for _, pattern := range []*regexp.Regexp{decimal2Pattern, decimal1Pattern, integerPattern} {
		m := pattern.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if domain.InPriceBounds(v) {
			return v, true
		}
	}
	return 0, false
}

// parseAmount converts a raw matched value (string or JSON number) into an
// amount using the given encoding. Out-of-bounds amounts are rejected.
func parseAmount(raw any, enc amountEncoding) (float64, bool) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return 0, false
	}

	s = strings.TrimSpace(priceNoise.Replace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	hasPoint := strings.Contains(s, ".")
	switch enc {
	case encCents:
		if !hasPoint {
			v /= 100
		}
	case encAuto:
		if !hasPoint && v >= 1000 {
			v /= 100
		}
	}

	if !domain.InPriceBounds(v) {
		return 0, false
	}
	return v, true
}

// amountPtr is parseAmount returning nil when nothing usable was found.
func amountPtr(raw any, enc amountEncoding) *float64 {
	v, ok := parseAmount(raw, enc)
	if !ok {
		return nil
	}
	return domain.Float(v)
}
