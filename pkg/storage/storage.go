// Package storage provides upload-artifact storage with local filesystem and
// S3 implementations. Import jobs read their source file back through this
// abstraction.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored upload
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for upload storage operations
type Storage interface {
	// Upload stores a file under the caller-supplied ID and returns its
	// metadata; the ID ties the stored bytes to the upload record
	Upload(ctx context.Context, userID, fileID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// GetReader returns a reader for a stored file (for streaming processing)
	GetReader(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (*FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error
}

// BackendType identifies the storage backend
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendS3    BackendType = "s3"
)

// Config holds storage configuration
type Config struct {
	Type BackendType

	// Local storage config
	LocalPath string

	// S3 storage config (prepared for future use)
	S3Bucket string
	S3Region string
}

// New creates a Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case BackendS3:
		return NewS3Storage(cfg)
	case BackendLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}
