package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

const minTitleLen = 3

// Validate checks the rules every stored candidate must satisfy and returns
// the first one broken as a *domain.ValidationError.
func Validate(c *domain.ProductCandidate) error {
	if c == nil {
		return &domain.ValidationError{Field: "candidate", Reason: "missing"}
	}
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return &domain.ValidationError{Field: "title", Reason: "empty"}
	}
	if utf8.RuneCountInString(title) < minTitleLen {
		return &domain.ValidationError{Field: "title", Reason: "shorter than 3 characters"}
	}
	if strings.TrimSpace(c.URL) == "" {
		return &domain.ValidationError{Field: "url", Reason: "empty"}
	}
	if c.Price != nil && *c.Price < 0 {
		return &domain.ValidationError{Field: "price", Reason: "negative"}
	}
	if c.OriginalPrice != nil && *c.OriginalPrice < 0 {
		return &domain.ValidationError{Field: "original_price", Reason: "negative"}
	}
	return nil
}
