package parser

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Canonical semantic column names
const (
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldAccount     = "account"
)

// canonicalSynonyms maps known header variants to their canonical field.
// Headers are lower-cased and trimmed before lookup.
var canonicalSynonyms = map[string]string{
	"date":             FieldDate,
	"transaction_date": FieldDate,
	"transaction date": FieldDate,
	"trans_date":       FieldDate,
	"trans date":       FieldDate,
	"posting_date":     FieldDate,
	"posting date":     FieldDate,
	"value_date":       FieldDate,
	"value date":       FieldDate,

	"amount":             FieldAmount,
	"transaction_amount": FieldAmount,
	"transaction amount": FieldAmount,
	"value":              FieldAmount,
	"debit":              FieldAmount,
	"credit":             FieldAmount,

	"description":             FieldDescription,
	"transaction_description": FieldDescription,
	"transaction description": FieldDescription,
	"memo":                    FieldDescription,
	"reference":               FieldDescription,
	"details":                 FieldDescription,

	"account":        FieldAccount,
	"account_number": FieldAccount,
	"account number": FieldAccount,
	"account_name":   FieldAccount,
	"account name":   FieldAccount,
}

// fuzzyMatchThreshold is the max Levenshtein rank accepted when a header only
// approximately matches a known synonym (covers typos like "descripton").
const fuzzyMatchThreshold = 2

// canonicalizeHeaders maps each source header to a canonical field name.
// Resolution order per header: explicit override, exact synonym, fuzzy
// synonym. Returns the per-column canonical names ("" when unmapped) and a
// source->canonical map for persistence.
func canonicalizeHeaders(headers []string, override map[string]string) ([]string, map[string]string) {
	canonical := make([]string, len(headers))
	mapping := make(map[string]string, len(headers))

	lowerOverride := make(map[string]string, len(override))
	for src, field := range override {
		lowerOverride[strings.ToLower(strings.TrimSpace(src))] = field
	}

	for i, raw := range headers {
		h := strings.ToLower(strings.TrimSpace(raw))
		if h == "" {
			continue
		}

		if field, ok := lowerOverride[h]; ok {
			canonical[i] = field
		} else if field, ok := canonicalSynonyms[h]; ok {
			canonical[i] = field
		} else if field := fuzzyCanonical(h); field != "" {
			canonical[i] = field
		}

		if canonical[i] != "" {
			mapping[strings.TrimSpace(raw)] = canonical[i]
		}
	}
	return canonical, mapping
}

// fuzzyCanonical finds the closest synonym within the edit-distance
// threshold. Short headers are skipped so "data" does not collapse to "date".
func fuzzyCanonical(header string) string {
	if len(header) < 5 {
		return ""
	}
	bestRank := fuzzyMatchThreshold + 1
	bestField := ""
	for syn, field := range canonicalSynonyms {
		rank := fuzzy.LevenshteinDistance(header, syn)
		if rank >= 0 && rank < bestRank {
			bestRank = rank
			bestField = field
		}
	}
	if bestRank <= fuzzyMatchThreshold {
		return bestField
	}
	return ""
}

// findColumn returns the index of the column carrying the given canonical
// field: first by canonical assignment, then by substring match against the
// raw header names.
func findColumn(headers, canonical []string, field string) int {
	for i, c := range canonical {
		if c == field {
			return i
		}
	}
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), field) {
			return i
		}
	}
	return -1
}
