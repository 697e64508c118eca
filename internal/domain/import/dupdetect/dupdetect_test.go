package dupdetect

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/ledger"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func txn(d int, amount, description string) ledger.Transaction {
	return ledger.Transaction{
		Date:        day(d),
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
}

func TestCheck(t *testing.T) {
	detector := New(DefaultThreshold)

	t.Run("identical transaction next day is a duplicate", func(t *testing.T) {
		existing := txn(15, "-45.99", "Coffee Shop Purchase")
		candidate := Candidate{
			Date:        day(16),
			Amount:      decimal.RequireFromString("-45.99"),
			Description: "COFFEE SHOP",
		}

		result := detector.Check(candidate, []ledger.Transaction{existing})
		require.True(t, result.IsDuplicate)
		assert.GreaterOrEqual(t, result.Confidence, DefaultThreshold)
		require.NotNil(t, result.Match)
		assert.Equal(t, existing.Description, result.Match.Description)
	})

	t.Run("empty window is never a duplicate", func(t *testing.T) {
		candidate := Candidate{Date: day(15), Amount: decimal.RequireFromString("-45.99"), Description: "Coffee"}
		result := detector.Check(candidate, nil)
		assert.False(t, result.IsDuplicate)
		assert.Zero(t, result.Confidence)
		assert.Nil(t, result.Match)
	})

	t.Run("different amount and memo stays below threshold", func(t *testing.T) {
		existing := txn(15, "-120.00", "Grocery Store")
		candidate := Candidate{Date: day(15), Amount: decimal.RequireFromString("-45.99"), Description: "Coffee Shop"}
		result := detector.Check(candidate, []ledger.Transaction{existing})
		assert.False(t, result.IsDuplicate)
		assert.Nil(t, result.Match)
	})

	t.Run("best match wins across the window", func(t *testing.T) {
		window := []ledger.Transaction{
			txn(12, "-45.99", "Unrelated Vendor"),
			txn(15, "-45.99", "Coffee Shop"),
		}
		candidate := Candidate{Date: day(15), Amount: decimal.RequireFromString("-45.99"), Description: "Coffee Shop"}
		result := detector.Check(candidate, window)
		require.True(t, result.IsDuplicate)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
		assert.Equal(t, "Coffee Shop", result.Match.Description)
	})
}

func TestDateSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, dateSimilarity(day(15), day(15)), 1e-9)
	assert.InDelta(t, 0.8, dateSimilarity(day(15), day(16)), 1e-9)
	assert.InDelta(t, 0.4, dateSimilarity(day(15), day(18)), 1e-9)
	assert.InDelta(t, 0.0, dateSimilarity(day(15), day(20)), 1e-9)
	assert.InDelta(t, 0.0, dateSimilarity(day(15), day(25)), 1e-9)
}

func TestAmountSimilarity(t *testing.T) {
	t.Run("exact match is 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, amountSimilarity(decimal.RequireFromString("-45.99"), decimal.RequireFromString("-45.99")), 1e-9)
	})

	t.Run("relative difference anchors on the candidate", func(t *testing.T) {
		got := amountSimilarity(decimal.NewFromInt(100), decimal.NewFromInt(90))
		assert.InDelta(t, 0.9, got, 1e-9)
	})

	t.Run("asymmetry is locked in", func(t *testing.T) {
		forward := amountSimilarity(decimal.NewFromInt(100), decimal.NewFromInt(50))
		reverse := amountSimilarity(decimal.NewFromInt(50), decimal.NewFromInt(100))
		assert.InDelta(t, 0.5, forward, 1e-9)
		assert.InDelta(t, 0.0, reverse, 1e-9)
		assert.NotEqual(t, forward, reverse)
	})

	t.Run("zero candidate scores zero", func(t *testing.T) {
		assert.Zero(t, amountSimilarity(decimal.Zero, decimal.NewFromInt(10)))
	})
}

func TestDescriptionSimilarity(t *testing.T) {
	t.Run("jaccard of shared tokens", func(t *testing.T) {
		// {coffee, shop} vs {coffee, shop, purchase}: 2/3
		got := descriptionSimilarity("COFFEE SHOP", "Coffee Shop Purchase")
		assert.InDelta(t, 2.0/3.0, got, 1e-9)
	})

	t.Run("identical sets score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, descriptionSimilarity("Coffee Shop", "coffee shop"), 1e-9)
	})

	t.Run("empty description scores zero", func(t *testing.T) {
		assert.Zero(t, descriptionSimilarity("", "Coffee Shop"))
		assert.Zero(t, descriptionSimilarity("Coffee Shop", ""))
	})
}

func TestCompositeScenario(t *testing.T) {
	// date one day apart (0.8), amount identical (1.0), two of three tokens
	// shared: 0.3*0.8 + 0.5*1.0 + 0.2*(2/3) ≈ 0.873
	detector := New(DefaultThreshold)
	existing := txn(15, "-45.99", "Coffee Shop Purchase")
	candidate := Candidate{Date: day(16), Amount: decimal.RequireFromString("-45.99"), Description: "COFFEE SHOP"}

	result := detector.Check(candidate, []ledger.Transaction{existing})
	require.True(t, result.IsDuplicate)
	assert.InDelta(t, 0.3*0.8+0.5*1.0+0.2*(2.0/3.0), result.Confidence, 1e-9)
}
