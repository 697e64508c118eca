// Package intake validates uploaded files before any parsing happens: size
// cap, content-sniffed MIME type against an allow list, SHA-256 content hash,
// and a pluggable content scan.
package intake

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultMaxFileSize is the upload size cap (50 MB)
const DefaultMaxFileSize = 50 * 1024 * 1024

// sniffLen limits MIME detection to the leading bytes of the file
const sniffLen = 1024

// Canonical MIME types accepted by the gate
const (
	MIMECSV  = "text/csv"
	MIMEXLS  = "application/vnd.ms-excel"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPDF  = "application/pdf"
)

// Rejection reasons recorded on the check result and in metrics
const (
	ReasonTooLarge     = "file_too_large"
	ReasonSizeMismatch = "size_mismatch"
	ReasonMIMEBlocked  = "mime_not_allowed"
	ReasonScanFlagged  = "scan_flagged"
)

// CheckResult is the forensic record of an intake validation. The content
// hash and detected MIME type are filled in even when the file is rejected.
type CheckResult struct {
	Accepted     bool     `json:"accepted"`
	SizeOK       bool     `json:"size_ok"`
	DetectedMIME string   `json:"detected_mime"`
	MIMEAllowed  bool     `json:"mime_allowed"`
	SHA256       string   `json:"sha256"`
	ScanClean    bool     `json:"scan_clean"`
	ScanFindings []string `json:"scan_findings,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Gate runs the intake checks in order: size, MIME sniff, hash, content scan.
type Gate struct {
	maxSize int64
	scanner Scanner
	logger  *slog.Logger
}

// NewGate creates an intake gate. A nil scanner falls back to the pattern
// scanner; pass NewNoopScanner explicitly to disable scanning.
func NewGate(maxSize int64, scanner Scanner, logger *slog.Logger) *Gate {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if scanner == nil {
		scanner = NewPatternScanner()
	}
	return &Gate{maxSize: maxSize, scanner: scanner, logger: logger}
}

// Validate checks the uploaded bytes against the declared size. It returns
// whether the file is accepted plus the full check result; the hash and MIME
// type are computed regardless of outcome so they can be persisted for audit.
func (g *Gate) Validate(ctx context.Context, data []byte, declaredSize int64) (bool, *CheckResult, error) {
	result := &CheckResult{
		DetectedMIME: detectMIME(data),
		SHA256:       hashContent(data),
		ScanClean:    true,
	}
	result.MIMEAllowed = isAllowedMIME(result.DetectedMIME)

	actualSize := int64(len(data))
	switch {
	case actualSize > g.maxSize:
		result.Reason = ReasonTooLarge
	case declaredSize > 0 && declaredSize != actualSize:
		result.Reason = ReasonSizeMismatch
	default:
		result.SizeOK = true
	}

	if result.SizeOK && !result.MIMEAllowed {
		result.Reason = ReasonMIMEBlocked
	}

	// Scan only files that passed the cheap checks; a rejected file is
	// never parsed, so scanning it buys nothing.
	if result.SizeOK && result.MIMEAllowed {
		findings, err := g.scanner.Scan(ctx, data)
		if err != nil {
			return false, result, fmt.Errorf("content scan failed: %w", err)
		}
		if len(findings) > 0 {
			result.ScanClean = false
			result.ScanFindings = findings
			result.Reason = ReasonScanFlagged
		}
	}

	result.Accepted = result.SizeOK && result.MIMEAllowed && result.ScanClean
	if !result.Accepted {
		g.logger.Warn("upload rejected by intake gate",
			slog.String("reason", result.Reason),
			slog.String("mime", result.DetectedMIME),
			slog.Int64("size", actualSize),
		)
	}
	return result.Accepted, result, nil
}

// detectMIME sniffs the actual content type from the leading bytes of the
// file; the client-declared type is never trusted.
func detectMIME(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	switch {
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return MIMEPDF
	case bytes.HasPrefix(head, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}):
		// OLE2 compound document (legacy Excel)
		return MIMEXLS
	case bytes.HasPrefix(head, []byte{0x50, 0x4B, 0x03, 0x04}):
		// ZIP container; OOXML workbooks are the only zip we accept
		return MIMEXLSX
	}

	detected := http.DetectContentType(head)
	if strings.HasPrefix(detected, "text/plain") || strings.HasPrefix(detected, "text/csv") {
		return MIMECSV
	}
	return detected
}

func isAllowedMIME(mime string) bool {
	switch mime {
	case MIMECSV, MIMEXLS, MIMEXLSX, MIMEPDF:
		return true
	}
	return false
}

// hashContent computes the SHA-256 of the full byte stream
func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
