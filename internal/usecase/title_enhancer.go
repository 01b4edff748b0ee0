package usecase

import (
	"net/url"
	"path"
	"slices"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxTitleHints    = 2
	maxColourHintLen = 20
	maxSizeHintLen   = 10
)

var (
	colourHintSelectors = []string{
		`.product-form__option-value[data-option-position="1"]`,
		".color-swatch.selected",
		".variant-color",
		".product-color",
		"[data-color]",
		".swatch.selected",
	}
	sizeHintSelectors = []string{
		`[data-option-position="2"]`,
		".variant-size",
		".product-size",
		"[data-size]",
	}
)

// EnhanceTitle appends up to two variant hints (colour, then size) found in
// the listing container or, for colour, at the end of the product url path.
// Hints already present in the title are skipped.
func EnhanceTitle(container *goquery.Selection, title, productURL string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return title
	}

	caser := cases.Title(language.English)
	var hints []string
	add := func(hint string) {
		hint = strings.TrimSpace(hint)
		if hint == "" || len(hints) >= maxTitleHints {
			return
		}
		if containsWords(title, hint) {
			return
		}
		for _, h := range hints {
			if strings.EqualFold(h, hint) {
				return
			}
		}
		hints = append(hints, caser.String(strings.ToLower(hint)))
	}

	colour := colourHint(container)
	if colour == "" {
		colour = urlColourHint(productURL)
	}
	add(colour)
	add(sizeHint(container))

	if len(hints) == 0 {
		return title
	}
	return title + " - " + strings.Join(hints, " ")
}

func colourHint(container *goquery.Selection) string {
	if container == nil {
		return ""
	}
	for _, sel := range colourHintSelectors {
		node := container.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := collapseSpace(node.Text()); text != "" && len(text) < maxColourHintLen {
			return text
		}
		for _, attr := range []string{"data-color", "title"} {
			if v, ok := node.Attr(attr); ok {
				if v = collapseSpace(v); v != "" && len(v) < maxColourHintLen {
					return v
				}
			}
		}
	}
	return ""
}

func sizeHint(container *goquery.Selection) string {
	if container == nil {
		return ""
	}
	for _, sel := range sizeHintSelectors {
		node := container.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := collapseSpace(node.Text())
		if text == "" {
			text, _ = node.Attr("data-size")
			text = collapseSpace(text)
		}
		if text != "" && len(text) < maxSizeHintLen {
			return text
		}
	}
	return ""
}

// urlColourHint returns the trailing colour words of the last path segment:
// /products/wool-cruiser-dark-olive gives "dark olive"
func urlColourHint(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil || u.Path == "" {
		return ""
	}
	tokens := strings.Split(strings.ToLower(path.Base(u.Path)), "-")

	start := len(tokens)
	for start > 1 && colourSet[strings.ToUpper(tokens[start-1])] {
		start--
	}
	if start == len(tokens) {
		return ""
	}
	return strings.Join(tokens[start:], " ")
}

// DirectSizes collects size tokens rendered in the listing container itself
func DirectSizes(container *goquery.Selection) []string {
	if container == nil {
		return nil
	}
	sizes := make(map[string]bool)
	container.Find(strings.Join(sizeHintSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		text := collapseSpace(s.Text())
		if text == "" {
			text, _ = s.Attr("data-size")
			text = collapseSpace(text)
		}
		if IsActualSize(text) {
			sizes[text] = true
		}
	})
	return sortedKeys(sizes)
}

// containsWords reports whether the words of phrase appear consecutively in
// s, ignoring case and punctuation. A phrase without words counts as present.
func containsWords(s, phrase string) bool {
	want := wordsOf(phrase)
	if len(want) == 0 {
		return true
	}
	words := wordsOf(s)
	for i := 0; i+len(want) <= len(words); i++ {
		if slices.Equal(words[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func wordsOf(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
