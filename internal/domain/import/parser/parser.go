// Package parser decodes uploaded tabular files into canonical rows. It
// walks a fixed encoding priority chain, standardizes arbitrary header names
// to canonical fields, and enforces the structural minimums before any row
// validation happens.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseableFile is returned when no supported encoding yields a
// parseable table.
var ErrUnparseableFile = errors.New("file could not be parsed with any supported encoding")

// requiredFields must each be resolvable to a column before rows are
// processed.
var requiredFields = []string{FieldDate, FieldAmount, FieldDescription}

const minColumns = 3

// StructuralError describes a whole-file defect; it is terminal for the job.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "structural error: " + e.Reason
}

// Row is one data row keyed by canonical field name.
type Row struct {
	Number int               // 1-based data row number (header excluded)
	Fields map[string]string // canonical field -> raw cell value
	Raw    []string          // original record, for error reporting
}

// Get returns the raw value for a canonical field, trimmed.
func (r Row) Get(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// Table is a fully decoded, header-standardized file.
type Table struct {
	Headers   []string          // original headers, trimmed
	Canonical []string          // canonical field per column ("" if unmapped)
	Mapping   map[string]string // source header -> canonical field
	Rows      []Row
	Encoding  string
	Delimiter rune
}

// Options configures a parse run.
type Options struct {
	// ColumnMapping overrides automatic header inference when supplied
	// (source column name -> canonical field).
	ColumnMapping map[string]string
	// Delimiter forces the field delimiter; zero means auto-detect.
	Delimiter rune
}

// Parser turns raw file bytes into a canonical Table.
type Parser struct {
	opts Options
}

func New(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse decodes and standardizes the file. It fails fast on structural
// problems: undecodable bytes, empty table, too few columns, or a missing
// required semantic column.
func (p *Parser) Parse(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, &StructuralError{Reason: "file is empty"}
	}

	delimiter := p.opts.Delimiter
	if delimiter == 0 {
		delimiter = detectDelimiter(data)
	}

	records, encoding, err := decodeAndRead(data, delimiter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &StructuralError{Reason: "file contains no rows"}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	if len(records) < 2 {
		return nil, &StructuralError{Reason: "file contains a header row but no data rows"}
	}
	if len(headers) < minColumns {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("file has %d columns, at least %d required", len(headers), minColumns),
		}
	}

	canonical, mapping := canonicalizeHeaders(headers, p.opts.ColumnMapping)

	columns := make(map[string]int, len(requiredFields)+1)
	for _, field := range append([]string{FieldAccount}, requiredFields...) {
		columns[field] = findColumn(headers, canonical, field)
	}
	var missing []string
	for _, field := range requiredFields {
		if columns[field] < 0 {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("required columns not found: %s", strings.Join(missing, ", ")),
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		fields := make(map[string]string, len(columns))
		for field, idx := range columns {
			if idx >= 0 && idx < len(record) {
				fields[field] = record[idx]
			}
		}
		rows = append(rows, Row{Number: i + 1, Fields: fields, Raw: record})
	}

	return &Table{
		Headers:   headers,
		Canonical: canonical,
		Mapping:   mapping,
		Rows:      rows,
		Encoding:  encoding,
		Delimiter: delimiter,
	}, nil
}
