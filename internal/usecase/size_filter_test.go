package usecase

import (
	"testing"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCategorizeItem(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Dry Tin Cloth Pants", CategoryBottoms},
		{"Granite Spire Shorts", CategoryBottoms},
		{"Mackinaw Wool Cruiser", CategoryOuterwear},
		{"Tin Cloth Field Jacket", CategoryOuterwear},
		{"Wildfire Boots", CategoryFootwear},
		{"Leather Belt", CategoryAccessories},
		{"Logger Caps", CategoryAccessories},
		{"Alaskan Guide Shirt", CategoryTops},
		{"", CategoryTops},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeItem(tt.title))
		})
	}
}

func TestMatchesSizePreference(t *testing.T) {
	prefs := SizePreferences{
		Enabled: true,
		Sizes: map[string][]string{
			CategoryOuterwear:   {"L", "XL"},
			CategoryBottoms:     {"32W", "34W"},
			CategoryAccessories: {"all"},
		},
	}

	tests := []struct {
		name  string
		c     domain.ProductCandidate
		prefs SizePreferences
		want  bool
	}{
		{"matching size", domain.ProductCandidate{Title: "Field Jacket", Sizes: []string{"M", "XL"}}, prefs, true},
		{"case insensitive", domain.ProductCandidate{Title: "Field Jacket", Sizes: []string{"xl"}}, prefs, true},
		{"no matching size", domain.ProductCandidate{Title: "Field Jacket", Sizes: []string{"S", "M"}}, prefs, false},
		{"no sizes means no constraint", domain.ProductCandidate{Title: "Field Jacket"}, prefs, true},
		{"all keeps everything", domain.ProductCandidate{Title: "Leather Belt", Sizes: []string{"38"}}, prefs, true},
		{"unconfigured category keeps everything", domain.ProductCandidate{Title: "Guide Shirt", Sizes: []string{"S"}}, prefs, true},
		{"disabled filter", domain.ProductCandidate{Title: "Field Jacket", Sizes: []string{"S"}}, SizePreferences{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSizePreference(&tt.c, tt.prefs))
		})
	}
}
