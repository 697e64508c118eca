package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		supported bool
	}{
		{"usd uppercase", "USD", "USD", true},
		{"eur lowercase", "eur", "EUR", true},
		{"gbp padded", "  gbp ", "GBP", true},
		{"jpy", "JPY", "JPY", true},
		{"real but unsupported brl", "BRL", "BRL", false},
		{"not a currency", "dollars", "DOLLARS", false},
		{"empty", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.supported, ok)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(123456), MinorUnits(decimal.RequireFromString("1234.56"), USD))
	// JPY has no minor units
	assert.Equal(t, int64(500), MinorUnits(decimal.RequireFromString("500"), JPY))
	assert.Equal(t, int64(-4599), MinorUnits(decimal.RequireFromString("-45.99"), USD))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "$1,234.56", Display(decimal.RequireFromString("1234.56"), USD))
	assert.Equal(t, "-$45.99", Display(decimal.RequireFromString("-45.99"), USD))
	// unknown codes format as USD
	assert.Equal(t, "$10.00", Display(decimal.RequireFromString("10"), "XXX-NOT-A-CODE"))
}
