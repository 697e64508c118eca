package intake

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGateValidate(t *testing.T) {
	ctx := context.Background()
	csvContent := []byte("Date,Amount,Description\n2024-01-15,-45.99,Coffee Shop\n")

	t.Run("accepts a well formed csv", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewNoopScanner(), testLogger())
		ok, result, err := gate.Validate(ctx, csvContent, int64(len(csvContent)))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, result.Accepted)
		assert.Equal(t, MIMECSV, result.DetectedMIME)
		assert.True(t, result.SizeOK)
		assert.True(t, result.ScanClean)
		assert.Empty(t, result.Reason)
	})

	t.Run("rejects oversized file but still records hash and mime", func(t *testing.T) {
		gate := NewGate(16, NewNoopScanner(), testLogger())
		ok, result, err := gate.Validate(ctx, csvContent, int64(len(csvContent)))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonTooLarge, result.Reason)
		assert.Equal(t, MIMECSV, result.DetectedMIME)
		assert.NotEmpty(t, result.SHA256)
	})

	t.Run("rejects declared size mismatch", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewNoopScanner(), testLogger())
		ok, result, err := gate.Validate(ctx, csvContent, int64(len(csvContent))+100)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonSizeMismatch, result.Reason)
	})

	t.Run("rejects disallowed mime type", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewNoopScanner(), testLogger())
		png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0}, 64)...)
		ok, result, err := gate.Validate(ctx, png, int64(len(png)))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonMIMEBlocked, result.Reason)
		assert.False(t, result.MIMEAllowed)
	})

	t.Run("hash matches sha256 of content", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewNoopScanner(), testLogger())
		_, result, err := gate.Validate(ctx, csvContent, int64(len(csvContent)))
		require.NoError(t, err)
		want := sha256.Sum256(csvContent)
		assert.Equal(t, hex.EncodeToString(want[:]), result.SHA256)
	})

	t.Run("pattern scanner flags formula injection", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewPatternScanner(), testLogger())
		hostile := []byte("Date,Amount,Description\n2024-01-15,10.00,\"=cmd|' /C calc'!A0\"\n")
		ok, result, err := gate.Validate(ctx, hostile, int64(len(hostile)))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonScanFlagged, result.Reason)
		assert.False(t, result.ScanClean)
		assert.NotEmpty(t, result.ScanFindings)
	})

	t.Run("pattern scanner is case insensitive", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewPatternScanner(), testLogger())
		hostile := []byte("Date,Amount,Description\n2024-01-15,10.00,=CMD(shell)\n")
		ok, _, err := gate.Validate(ctx, hostile, int64(len(hostile)))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("clean content passes pattern scanner", func(t *testing.T) {
		gate := NewGate(DefaultMaxFileSize, NewPatternScanner(), testLogger())
		ok, _, err := gate.Validate(ctx, csvContent, int64(len(csvContent)))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf magic bytes", []byte("%PDF-1.7 something"), MIMEPDF},
		{"ole2 legacy excel", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, MIMEXLS},
		{"zip container treated as xlsx", []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}, MIMEXLSX},
		{"plain text treated as csv", []byte("Date,Amount\n2024-01-01,5.00\n"), MIMECSV},
		{"empty file", nil, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMIME(tt.data))
		})
	}
}
