package usecase

import (
	"regexp"
	"strings"
)

const maxSizeTokenLen = 15

// colourWords are option values that storefronts put next to sizes. A token
// equal to or containing one of them is never a size ("Dark Olive").
var colourWords = []string{
	"BLACK", "WHITE", "BLUE", "RED", "GREEN", "BROWN", "GRAY", "GREY", "NAVY",
	"TAN", "BEIGE", "RAVEN", "RUST", "GOLD", "SILVER", "CREAM", "OLIVE", "KHAKI",
	"CHARCOAL", "HEATHER", "INDIGO", "CRIMSON", "BURGUNDY", "MAROON", "PURPLE",
	"PINK", "ORANGE", "YELLOW", "DARK", "LIGHT", "BRIGHT", "MULTI", "PLAID",
	"CAMO", "WILDLIFE", "SORREL", "LARCH", "TROUT", "RIVER", "SMOKE", "FALLS",
	"ALMOND", "MAPLE", "BARK", "DUST", "CLAY", "FLAG", "ARMY", "FIELD", "STONE",
	"SAND", "DECO", "FLAME", "FRONTIER",
}

var colourSet = func() map[string]bool {
	set := make(map[string]bool, len(colourWords))
	for _, c := range colourWords {
		set[c] = true
	}
	return set
}()

var sizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(XS|S|M|L|XL|XXL|XXXL|2XL|3XL|4XL)$`),
	regexp.MustCompile(`^\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}[WL]$`),
	regexp.MustCompile(`^\d{1,2}\s*X\s*\d{1,2}$`),
	regexp.MustCompile(`^[SMLX]{1,4}\s*LONG$`),
	regexp.MustCompile(`^(SMALL|MEDIUM|LARGE|EXTRA LARGE)$`),
	regexp.MustCompile(`^(ONE SIZE|ONESIZE|OS)$`),
	regexp.MustCompile(`^\d{1,2}\.\d$`),
}

// IsActualSize reports whether an option value is a garment size. Colours are
// rejected first; anything matching no size grammar is not a size.
func IsActualSize(token string) bool {
	t := strings.ToUpper(strings.TrimSpace(token))
	if t == "" || len(t) > maxSizeTokenLen {
		return false
	}
	if isColour(t) {
		return false
	}
	for _, p := range sizePatterns {
		if p.MatchString(t) {
			return true
		}
	}
	return false
}

// isColour expects an upper-cased token
func isColour(t string) bool {
	if colourSet[t] {
		return true
	}
	for _, c := range colourWords {
		if strings.Contains(t, c) {
			return true
		}
	}
	return false
}
