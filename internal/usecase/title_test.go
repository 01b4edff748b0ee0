package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Mackinaw Wool Cruiser - SALE", "mackinaw wool cruiser"},
		{"  Tin Cloth   Field Jacket!! ", "tin cloth field jacket"},
		{"The New Alaskan Guide Shirt", "alaskan guide shirt"},
		{"Final Sale", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.input))
		})
	}
}

func TestTitleMatcher(t *testing.T) {
	m := NewTitleMatcher(0.92)

	assert.Equal(t, 1.0, m.Score("Mackinaw Cruiser", "MACKINAW CRUISER - Sale"))
	assert.Equal(t, 0.0, m.Score("", "anything"))
	assert.Greater(t, m.Score("Mackinaw Wool Cruiser Jackets", "Mackinaw Wool Cruiser Jacket"), 0.92)
	assert.Less(t, m.Score("Duffle Bag", "Field Jacket"), 0.92)

	idx, score := m.BestMatch("Tin Cloth Field Jacket", []string{"Duffle Bag", "Tin Cloth Field Jackets", "Tin Cloth Field Jacket"})
	assert.Equal(t, 2, idx)
	assert.Equal(t, 1.0, score)

	idx, _ = m.BestMatch("Wallet", []string{"Duffle Bag", "Field Jacket"})
	assert.Equal(t, -1, idx)
}

func TestNewTitleMatcher_DefaultThreshold(t *testing.T) {
	assert.Equal(t, fuzzyTitleThreshold, NewTitleMatcher(0).threshold)
	assert.Equal(t, fuzzyTitleThreshold, NewTitleMatcher(1.5).threshold)
	assert.Equal(t, 0.8, NewTitleMatcher(0.8).threshold)
}

func TestEnhanceTitle(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		title      string
		productURL string
		want       string
	}{
		{
			name:  "colour and size from dom",
			html:  `<div class="product-item"><span class="variant-color">dark olive</span><span class="variant-size">XL</span></div>`,
			title: "Mackinaw Wool Cruiser",
			want:  "Mackinaw Wool Cruiser - Dark Olive Xl",
		},
		{
			name:  "colour from data attribute",
			html:  `<div class="product-item"><span data-color="Otter Green"></span></div>`,
			title: "Tin Cloth Field Jacket",
			want:  "Tin Cloth Field Jacket - Otter Green",
		},
		{
			name:       "colour from url path",
			html:       `<div class="product-item"></div>`,
			title:      "Mackinaw Wool Cruiser",
			productURL: "https://shop.test/products/mackinaw-wool-cruiser-dark-olive?variant=1",
			want:       "Mackinaw Wool Cruiser - Dark Olive",
		},
		{
			name:  "hint already in title is skipped",
			html:  `<div class="product-item"><span class="variant-color">Navy</span></div>`,
			title: "Navy Guide Shirt",
			want:  "Navy Guide Shirt",
		},
		{
			name:  "one letter size inside a word is still added",
			html:  `<div class="product-item"><span class="variant-size">M</span></div>`,
			title: "Mackinaw Wool Cruiser",
			want:  "Mackinaw Wool Cruiser - M",
		},
		{
			name:  "size already a word in title is skipped",
			html:  `<div class="product-item"><span class="variant-size">xl</span></div>`,
			title: "Guide Shirt (XL)",
			want:  "Guide Shirt (XL)",
		},
		{
			name:  "multi word colour matched as a phrase",
			html:  `<div class="product-item"><span class="variant-color">Dark Olive</span><span class="variant-size">S</span></div>`,
			title: "Dark-Olive Tin Cloth Vest",
			want:  "Dark-Olive Tin Cloth Vest - S",
		},
		{
			name:  "colour split across the title is added",
			html:  `<div class="product-item"><span class="variant-color">Dark Olive</span></div>`,
			title: "Olive Dark Vest",
			want:  "Olive Dark Vest - Dark Olive",
		},
		{
			name:  "long dom text ignored",
			html:  `<div class="product-item"><span class="variant-color">this text is far too long to be a colour</span></div>`,
			title: "Guide Shirt",
			want:  "Guide Shirt",
		},
		{
			name:  "empty title stays empty",
			html:  `<div class="product-item"><span class="variant-color">Navy</span></div>`,
			title: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnhanceTitle(container(t, tt.html), tt.title, tt.productURL))
		})
	}
}

func TestURLColourHint(t *testing.T) {
	assert.Equal(t, "dark olive", urlColourHint("https://shop.test/products/wool-cruiser-dark-olive"))
	assert.Equal(t, "", urlColourHint("https://shop.test/products/wool-cruiser"))
	assert.Equal(t, "", urlColourHint(""))
}

func TestDirectSizes(t *testing.T) {
	html := `<div class="product-item">
<span class="variant-size">M</span><span class="variant-size">L</span>
<span data-size="XL"></span><span class="product-size">Black</span><span class="variant-size">M</span>
</div>`

	assert.Equal(t, []string{"L", "M", "XL"}, DirectSizes(container(t, html)))
	assert.Nil(t, DirectSizes(container(t, `<div class="product-item"></div>`)))
}
