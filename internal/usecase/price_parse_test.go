package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceText(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"$49.99", 49.99, true},
		{"$1,249.00", 1249.00, true},
		{"Sale price $49.99 USD", 49.99, true},
		{"49 USD", 49, true},
		{"19.5", 19.5, true},
		{"  $ 12.00  ", 12.00, true},
		{"", 0, false},
		{"Sold out", 0, false},
		{"$0.00", 0, false},
		{"$20,000.00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePriceText(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePriceText(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParsePriceText(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAmount_Encodings(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		enc    amountEncoding
		want   float64
		wantOK bool
	}{
		{"decimal string", "49.99", encDecimal, 49.99, true},
		{"decimal with symbol", "$1,049.50", encDecimal, 1049.50, true},
		{"cents integer", "4999", encCents, 49.99, true},
		{"cents pattern with decimal point", "49.99", encCents, 49.99, true},
		{"cents json number", float64(12500), encCents, 125, true},
		{"auto small integer", "49", encAuto, 49, true},
		{"auto large integer is cents", float64(4999), encAuto, 49.99, true},
		{"auto decimal", "$69.99", encAuto, 69.99, true},
		{"out of bounds", "20000.00", encDecimal, 0, false},
		{"zero", "0", encDecimal, 0, false},
		{"nil", nil, encDecimal, 0, false},
		{"bool", true, encDecimal, 0, false},
		{"garbage", "abc", encAuto, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseAmount(tt.raw, tt.enc)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}
