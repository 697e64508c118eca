package validator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow pins the clock to 2024-06-15 for date boundary tests.
var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewWithClock(func() time.Time { return fixedNow })
}

func row(date, amount, description string) map[string]string {
	return map[string]string{"date": date, "amount": amount, "description": description}
}

func errorCodes(result RowResult) []string {
	codes := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestValidateRow(t *testing.T) {
	v := newTestValidator()

	t.Run("valid row", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "-45.99", "COFFEE SHOP"), 1)
		require.True(t, result.Valid)
		assert.True(t, result.Amount.Equal(decimal.RequireFromString("-45.99")))
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), result.Date)
		assert.Equal(t, "COFFEE SHOP", result.Description)
		assert.Equal(t, "USD", result.Currency)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unparseable amount yields exactly one error", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "abc", "Test"), 1)
		require.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeInvalidAmountFormat, result.Errors[0].Code)
	})

	t.Run("field checks do not short circuit", func(t *testing.T) {
		result := v.ValidateRow(row("not-a-date", "abc", ""), 1)
		require.False(t, result.Valid)
		codes := errorCodes(result)
		assert.Contains(t, codes, CodeInvalidAmountFormat)
		assert.Contains(t, codes, CodeInvalidDateFormat)
		assert.Contains(t, codes, CodeMissingDescription)
		assert.Len(t, codes, 3)
	})

	t.Run("missing fields", func(t *testing.T) {
		result := v.ValidateRow(map[string]string{}, 1)
		codes := errorCodes(result)
		assert.Contains(t, codes, CodeMissingAmount)
		assert.Contains(t, codes, CodeMissingDate)
		assert.Contains(t, codes, CodeMissingDescription)
	})
}

func TestAmountRules(t *testing.T) {
	v := newTestValidator()

	t.Run("zero amount is rejected", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "0.00", "Test row"), 1)
		assert.Contains(t, errorCodes(result), CodeZeroAmount)
	})

	t.Run("amount over limit is rejected with a suggestion", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "10000000.01", "Test row"), 1)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeAmountTooLarge, result.Errors[0].Code)
		assert.NotEmpty(t, result.Errors[0].Suggestion)
	})

	t.Run("amount exactly at limit is accepted", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "10000000", "Test row"), 1)
		assert.True(t, result.Valid)
	})

	t.Run("negative amount over limit is rejected", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "-10000000.01", "Test row"), 1)
		assert.Contains(t, errorCodes(result), CodeAmountTooLarge)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123.45", "123.45"},
		{"-45.99", "-45.99"},
		{"(123.45)", "-123.45"},
		{"$1,234.56", "1234.56"},
		{"€99.00", "99"},
		{"£ 50.25", "50.25"},
		{"¥1000", "1000"},
		{" 7.5 ", "7.5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := ParseAmount("abc")
		assert.Error(t, err)
	})
}

func TestDateBoundaries(t *testing.T) {
	v := newTestValidator()

	t.Run("today is accepted", func(t *testing.T) {
		result := v.ValidateRow(row("2024-06-15", "10.00", "Test row"), 1)
		assert.True(t, result.Valid)
	})

	t.Run("one day in the future is rejected", func(t *testing.T) {
		result := v.ValidateRow(row("2024-06-16", "10.00", "Test row"), 1)
		assert.Contains(t, errorCodes(result), CodeFutureDate)
	})

	t.Run("1899-12-31 is too old", func(t *testing.T) {
		result := v.ValidateRow(row("1899-12-31", "10.00", "Test row"), 1)
		assert.Contains(t, errorCodes(result), CodeDateTooOld)
	})

	t.Run("1900-01-01 is accepted", func(t *testing.T) {
		result := v.ValidateRow(row("1900-01-01", "10.00", "Test row"), 1)
		assert.True(t, result.Valid)
	})

	t.Run("format list order resolves ambiguous dates as US", func(t *testing.T) {
		result := v.ValidateRow(row("03/04/2024", "10.00", "Test row"), 1)
		require.True(t, result.Valid)
		assert.Equal(t, time.March, result.Date.Month())
		assert.Equal(t, 4, result.Date.Day())
	})

	t.Run("named month formats parse", func(t *testing.T) {
		result := v.ValidateRow(row("Jan 2, 2024", "10.00", "Test row"), 1)
		require.True(t, result.Valid)
		assert.Equal(t, time.January, result.Date.Month())
	})
}

func TestDescriptionRules(t *testing.T) {
	v := newTestValidator()

	t.Run("501 characters is too long and not truncated", func(t *testing.T) {
		long := make([]byte, 501)
		for i := range long {
			long[i] = 'x'
		}
		result := v.ValidateRow(row("2024-01-15", "10.00", string(long)), 1)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeDescriptionTooLong, result.Errors[0].Code)
		assert.NotEmpty(t, result.Errors[0].Suggestion)
	})

	t.Run("single character is too short", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "10.00", "x"), 1)
		assert.Contains(t, errorCodes(result), CodeDescriptionTooShort)
	})

	t.Run("two characters is accepted", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "10.00", "ok"), 1)
		assert.True(t, result.Valid)
	})
}

func TestCurrencyRules(t *testing.T) {
	v := newTestValidator()

	t.Run("absent currency defaults to USD without warning", func(t *testing.T) {
		result := v.ValidateRow(row("2024-01-15", "10.00", "Test row"), 1)
		require.True(t, result.Valid)
		assert.Equal(t, "USD", result.Currency)
		assert.Empty(t, result.Warnings)
	})

	t.Run("supported currency is kept", func(t *testing.T) {
		fields := row("2024-01-15", "10.00", "Test row")
		fields["currency"] = "eur"
		result := v.ValidateRow(fields, 1)
		require.True(t, result.Valid)
		assert.Equal(t, "EUR", result.Currency)
	})

	t.Run("unsupported currency downgrades to USD with a warning", func(t *testing.T) {
		fields := row("2024-01-15", "10.00", "Test row")
		fields["currency"] = "BTC"
		result := v.ValidateRow(fields, 1)
		require.True(t, result.Valid)
		assert.Equal(t, "USD", result.Currency)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, CodeUnsupportedCurrency, result.Warnings[0].Code)
	})
}
