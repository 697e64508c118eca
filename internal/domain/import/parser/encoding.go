package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// encodingCandidate is one entry in the decode priority chain.
type encodingCandidate struct {
	name    string
	charmap *charmap.Charmap // nil means UTF-8
}

// encodingChain is tried in order; the first candidate whose decoded text
// parses as CSV wins. Latin-1 and ISO-8859-1 are the same byte map but both
// names are kept so the recorded encoding matches what callers expect.
var encodingChain = []encodingCandidate{
	{name: "utf-8"},
	{name: "latin-1", charmap: charmap.ISO8859_1},
	{name: "cp1252", charmap: charmap.Windows1252},
	{name: "iso-8859-1", charmap: charmap.ISO8859_1},
}

// decodeAndRead walks the encoding chain and returns the first successfully
// parsed record set along with the encoding name that produced it.
func decodeAndRead(data []byte, delimiter rune) ([][]string, string, error) {
	var lastErr error
	for _, enc := range encodingChain {
		text, err := decodeWith(data, enc)
		if err != nil {
			lastErr = err
			continue
		}
		records, err := readCSV(text, delimiter)
		if err != nil {
			lastErr = err
			continue
		}
		return records, enc.name, nil
	}
	return nil, "", fmt.Errorf("%w: %v", ErrUnparseableFile, lastErr)
}

func decodeWith(data []byte, enc encodingCandidate) (string, error) {
	if enc.charmap == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("not valid utf-8")
		}
		return string(data), nil
	}
	decoded, err := enc.charmap.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%s decode: %w", enc.name, err)
	}
	return string(decoded), nil
}

func readCSV(text string, delimiter rune) ([][]string, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	reader := csv.NewReader(strings.NewReader(text))
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// detectDelimiter picks the delimiter with the highest count in the first
// line; comma wins ties through ordering.
func detectDelimiter(data []byte) rune {
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	line := string(data[:end])

	best := ','
	bestCount := 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}
