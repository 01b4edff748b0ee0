package usecase

import (
	"strings"
	"unicode"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

// Item categories used by the size preference filter
const (
	CategoryBottoms     = "bottoms"
	CategoryOuterwear   = "outerwear"
	CategoryFootwear    = "footwear"
	CategoryAccessories = "accessories"
	CategoryTops        = "tops"
)

// categoryKeywords are checked in order; a title word starting with a
// keyword puts the item in that category
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryBottoms, []string{"jeans", "pants", "trousers", "chinos", "shorts", "trunks"}},
	{CategoryOuterwear, []string{"jacket", "coat", "vest", "blazer", "parka", "anorak", "cruiser"}},
	{CategoryFootwear, []string{"shoe", "boot", "sneaker", "sandal", "loafer"}},
	{CategoryAccessories, []string{"hat", "cap", "belt", "bag", "backpack", "wallet", "glove", "scarf"}},
}

// SizePreferences holds preferred sizes per category. A category mapped to
// "all", or not mapped at all, accepts every size.
type SizePreferences struct {
	Enabled bool
	Sizes   map[string][]string
}

// CategorizeItem classifies an item by keywords in its title; anything
// unmatched is a top
func CategorizeItem(title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, group := range categoryKeywords {
		for _, word := range words {
			for _, kw := range group.keywords {
				if strings.HasPrefix(word, kw) {
					return group.category
				}
			}
		}
	}
	return CategoryTops
}

// MatchesSizePreference reports whether c survives the size filter. Items
// without size information always pass.
func MatchesSizePreference(c *domain.ProductCandidate, prefs SizePreferences) bool {
	if !prefs.Enabled || len(c.Sizes) == 0 {
		return true
	}

	preferred, ok := prefs.Sizes[CategorizeItem(c.Title)]
	if !ok || len(preferred) == 0 {
		return true
	}
	for _, p := range preferred {
		if strings.EqualFold(strings.TrimSpace(p), "all") {
			return true
		}
	}

	for _, size := range c.Sizes {
		for _, p := range preferred {
			if strings.EqualFold(strings.TrimSpace(size), strings.TrimSpace(p)) {
				return true
			}
		}
	}
	return false
}
