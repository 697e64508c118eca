package intake

import (
	"bytes"
	"context"

	"github.com/cloudflare/ahocorasick"
)

// Scanner inspects file content for hostile payloads before parsing.
type Scanner interface {
	Scan(ctx context.Context, data []byte) ([]string, error)
}

// NoopScanner accepts everything. Used when scanning is disabled by config.
type NoopScanner struct{}

func NewNoopScanner() *NoopScanner { return &NoopScanner{} }

func (s *NoopScanner) Scan(_ context.Context, _ []byte) ([]string, error) {
	return nil, nil
}

// suspiciousPatterns are matched case-insensitively against the raw bytes.
// The formula prefixes cover CSV injection (spreadsheet apps execute cells
// starting with = + - @ when the payload calls out to a shell or DDE), and
// the EICAR string is the standard AV test signature.
var suspiciousPatterns = []string{
	"=cmd|",
	"=cmd(",
	"+cmd|",
	"-cmd|",
	"@sum(cmd",
	"=dde(",
	"=hyperlink(\"http",
	"=webservice(",
	"=importxml(",
	"x5o!p%@ap[4\\pzx54(p^)7cc)7}$eicar-standard-antivirus-test-file!$h+h*",
}

// PatternScanner flags known-hostile byte sequences using a single
// Aho-Corasick pass over the lowercased content.
type PatternScanner struct {
	matcher  *ahocorasick.Matcher
	patterns []string
}

func NewPatternScanner() *PatternScanner {
	return &PatternScanner{
		matcher:  ahocorasick.NewStringMatcher(suspiciousPatterns),
		patterns: suspiciousPatterns,
	}
}

func (s *PatternScanner) Scan(_ context.Context, data []byte) ([]string, error) {
	hits := s.matcher.Match(bytes.ToLower(data))
	if len(hits) == 0 {
		return nil, nil
	}
	findings := make([]string, 0, len(hits))
	for _, idx := range hits {
		findings = append(findings, s.patterns[idx])
	}
	return findings, nil
}
