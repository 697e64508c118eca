package parser

import (
	"strconv"
	"strings"
	"time"
)

// Column type labels produced by SniffColumnTypes
const (
	TypeDate        = "date"
	TypeAmount      = "amount"
	TypeDescription = "description"
	TypeText        = "text"
)

const (
	sniffSampleSize = 10
	// share of samples that must classify for date/amount
	sniffParseRatio = 0.8
	// description heuristics
	sniffUniquenessRatio = 0.7
	sniffMeanLength      = 10.0
)

var sniffDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// SniffColumnTypes classifies each column as date, amount, description, or
// generic text from a small sample of its values. The result is advisory
// (used for mapping suggestions); ingestion never depends on it.
func SniffColumnTypes(t *Table) []string {
	types := make([]string, len(t.Headers))
	for col := range t.Headers {
		types[col] = classifyColumn(sampleColumn(t, col))
	}
	return types
}

// sampleColumn collects up to sniffSampleSize non-empty values from a column.
func sampleColumn(t *Table, col int) []string {
	samples := make([]string, 0, sniffSampleSize)
	for _, row := range t.Rows {
		if col >= len(row.Raw) {
			continue
		}
		v := strings.TrimSpace(row.Raw[col])
		if v == "" {
			continue
		}
		samples = append(samples, v)
		if len(samples) == sniffSampleSize {
			break
		}
	}
	return samples
}

func classifyColumn(samples []string) string {
	if len(samples) == 0 {
		return TypeText
	}

	dates, amounts := 0, 0
	unique := make(map[string]struct{}, len(samples))
	totalLen := 0
	for _, v := range samples {
		if looksLikeDate(v) {
			dates++
		}
		if looksLikeAmount(v) {
			amounts++
		}
		unique[v] = struct{}{}
		totalLen += len(v)
	}

	ratio := func(n int) float64 { return float64(n) / float64(len(samples)) }
	switch {
	case ratio(dates) >= sniffParseRatio:
		return TypeDate
	case ratio(amounts) >= sniffParseRatio:
		return TypeAmount
	}

	uniqueness := float64(len(unique)) / float64(len(samples))
	meanLen := float64(totalLen) / float64(len(samples))
	if uniqueness > sniffUniquenessRatio && meanLen > sniffMeanLength {
		return TypeDescription
	}
	return TypeText
}

func looksLikeDate(v string) bool {
	for _, format := range sniffDateFormats {
		if _, err := time.Parse(format, v); err == nil {
			return true
		}
	}
	return false
}

// looksLikeAmount strips currency symbols, thousands separators, and
// accounting parentheses before testing for a plain number.
func looksLikeAmount(v string) bool {
	s := strings.TrimSpace(v)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	for _, sym := range []string{"$", "€", "£", "¥"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
