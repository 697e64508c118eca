// Package dupdetect scores staged import rows against nearby ledger
// transactions with a weighted similarity composite. A positive result never
// discards the row; it stages it for human disposition.
package dupdetect

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/ledger"
)

// Scoring constants. The composite weights amount heaviest: two transactions
// of identical amount near the same date are very likely the same event even
// with differing memo text.
const (
	DateWeight        = 0.3
	AmountWeight      = 0.5
	DescriptionWeight = 0.2

	// DateDecayPerDay makes date similarity reach zero at a 5-day gap.
	DateDecayPerDay = 0.2

	// DefaultThreshold is the composite score at or above which a candidate
	// is classified a duplicate.
	DefaultThreshold = 0.85

	// WindowDays bounds the ledger search to ±3 days around the candidate.
	WindowDays = 3
)

// Candidate is the staged row being checked.
type Candidate struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// Result reports the best match found in the window.
type Result struct {
	IsDuplicate bool
	Confidence  float64
	Match       *ledger.Transaction
}

// Detector scores candidates against a window of existing transactions.
type Detector struct {
	threshold float64
}

func New(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Check scores the candidate against every transaction in the window and
// keeps the best composite. The window is expected to already be date-bounded
// by the caller's ledger query.
func (d *Detector) Check(candidate Candidate, window []ledger.Transaction) Result {
	result := Result{}
	for i := range window {
		score := d.score(candidate, &window[i])
		if score > result.Confidence {
			result.Confidence = score
			result.Match = &window[i]
		}
	}
	result.IsDuplicate = result.Match != nil && result.Confidence >= d.threshold
	if !result.IsDuplicate {
		result.Match = nil
	}
	return result
}

func (d *Detector) score(c Candidate, existing *ledger.Transaction) float64 {
	return DateWeight*dateSimilarity(c.Date, existing.Date) +
		AmountWeight*amountSimilarity(c.Amount, existing.Amount) +
		DescriptionWeight*descriptionSimilarity(c.Description, existing.Description)
}

// dateSimilarity decays linearly with the day gap: 1.0 same day, 0.8 one day
// apart, zero at five days.
func dateSimilarity(a, b time.Time) float64 {
	days := math.Abs(a.Sub(b).Hours() / 24)
	return math.Max(0, 1-DateDecayPerDay*days)
}

// amountSimilarity is 1.0 on exact equality, otherwise relative difference
// anchored on the candidate's amount. The anchoring makes the score
// asymmetric when computed in the reverse direction; that is intended.
func amountSimilarity(candidate, existing decimal.Decimal) float64 {
	if candidate.Equal(existing) {
		return 1.0
	}
	if candidate.IsZero() {
		return 0
	}
	diff, _ := candidate.Sub(existing).Abs().Div(candidate.Abs()).Float64()
	return math.Max(0, 1-diff)
}

// descriptionSimilarity is the Jaccard index of the lower-cased word sets;
// zero when either description is empty.
func descriptionSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
