// Package money provides currency code validation and display formatting for
// monetary amounts, backed by go-money's ISO-4217 metadata and
// shopspring/decimal for precision.
package money

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
	CAD = "CAD" // Canadian Dollar
	AUD = "AUD" // Australian Dollar
	JPY = "JPY" // Japanese Yen (no decimal places)
)

// supportedCurrencies is the set of codes the import pipeline accepts as-is.
// Anything else is downgraded to USD at row-validation time.
var supportedCurrencies = map[string]bool{
	USD: true, EUR: true, GBP: true, CAD: true, AUD: true, JPY: true,
}

// IsSupported reports whether code is in the supported currency set.
func IsSupported(code string) bool {
	_, ok := Normalize(code)
	return ok
}

// Normalize upper-cases and trims a currency code and reports whether the
// result is supported. The cleaned code must also be a real ISO-4217 code per
// go-money's registry.
func Normalize(code string) (string, bool) {
	cleaned := strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(cleaned) == nil {
		return cleaned, false
	}
	return cleaned, supportedCurrencies[cleaned]
}

// MinorUnits converts a decimal amount to the currency's minor units
// (cents for USD, whole yen for JPY). Unknown codes fall back to USD scaling.
func MinorUnits(amount decimal.Decimal, code string) int64 {
	currency := money.GetCurrency(code)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	return amount.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()
}

// Display formats an amount with the currency's symbol and grouping rules
// (e.g. "$1,234.56", "¥500").
func Display(amount decimal.Decimal, code string) string {
	cleaned, _ := Normalize(code)
	if money.GetCurrency(cleaned) == nil {
		cleaned = USD
	}
	return money.New(MinorUnits(amount, cleaned), cleaned).Display()
}
