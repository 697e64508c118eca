package parser

import (
	"strings"

	"github.com/gocarina/gocsv"
)

// canonicalRow unmarshals files that already use canonical headers.
type canonicalRow struct {
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
	Account     string `csv:"account"`
}

// ParseCanonical is a fast path for files whose headers are already the
// canonical field names: gocsv unmarshals by header with no inference pass.
// Callers should fall back to Parse when ok is false.
func ParseCanonical(data []byte) (*Table, bool) {
	text := strings.TrimPrefix(string(data), "\uFEFF")

	headerLine, _, _ := strings.Cut(text, "\n")
	if !hasCanonicalHeaders(headerLine) {
		return nil, false
	}

	var typed []canonicalRow
	if err := gocsv.UnmarshalString(text, &typed); err != nil {
		return nil, false
	}
	if len(typed) == 0 {
		return nil, false
	}

	headers := []string{FieldDate, FieldAmount, FieldDescription, FieldAccount}
	rows := make([]Row, 0, len(typed))
	for i, r := range typed {
		rows = append(rows, Row{
			Number: i + 1,
			Fields: map[string]string{
				FieldDate:        r.Date,
				FieldAmount:      r.Amount,
				FieldDescription: r.Description,
				FieldAccount:     r.Account,
			},
			Raw: []string{r.Date, r.Amount, r.Description, r.Account},
		})
	}

	mapping := make(map[string]string, len(headers))
	for _, h := range headers {
		mapping[h] = h
	}
	return &Table{
		Headers:   headers,
		Canonical: headers,
		Mapping:   mapping,
		Rows:      rows,
		Encoding:  "utf-8",
		Delimiter: ',',
	}, true
}

// hasCanonicalHeaders requires the three mandatory canonical names verbatim.
func hasCanonicalHeaders(headerLine string) bool {
	present := make(map[string]bool, 4)
	for _, h := range strings.Split(headerLine, ",") {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return present[FieldDate] && present[FieldAmount] && present[FieldDescription]
}
