package usecase

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var (
	titlePunctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// titleNoiseWords are merchandising terms that storefronts add to some copies
// of a title and not others
var titleNoiseWords = map[string]bool{
	"sale":      true,
	"new":       true,
	"final":     true,
	"clearance": true,
	"exclusive": true,
	"limited":   true,
	"edition":   true,
	"the":       true,
}

// NormalizeTitle lowercases a product title, strips punctuation and noise
// words, and collapses whitespace.
func NormalizeTitle(title string) string {
	cleaned := titlePunctuation.ReplaceAllString(strings.ToLower(title), " ")

	var kept []string
	for _, word := range strings.Fields(cleaned) {
		if !titleNoiseWords[word] {
			kept = append(kept, word)
		}
	}
	return multiSpace.ReplaceAllString(strings.Join(kept, " "), " ")
}

// TitleMatcher scores product titles against each other with Jaro-Winkler
// similarity over normalized titles
type TitleMatcher struct {
	threshold float64
}

// NewTitleMatcher creates a matcher. A threshold outside (0, 1] falls back to 0.92.
func NewTitleMatcher(threshold float64) *TitleMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = fuzzyTitleThreshold
	}
	return &TitleMatcher{threshold: threshold}
}

// Score returns the similarity of two titles in [0, 1]
func (m *TitleMatcher) Score(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return matchr.JaroWinkler(na, nb, false)
}

// BestMatch returns the index of the candidate most similar to title, or -1
// when none reaches the threshold. Ties keep the earliest candidate.
func (m *TitleMatcher) BestMatch(title string, candidates []string) (int, float64) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		score := m.Score(title, c)
		if score >= m.threshold && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
