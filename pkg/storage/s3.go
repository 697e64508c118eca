package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// ErrS3NotImplemented indicates the S3 backend is declared but not yet built.
var ErrS3NotImplemented = errors.New("s3 storage backend not yet implemented")

// S3Storage implements Storage using Amazon S3 or S3-compatible services.
// TODO: implement with aws-sdk-go-v2 once an object-store deployment exists.
type S3Storage struct {
	bucket string
	region string
}

// NewS3Storage validates configuration for the future S3 backend
func NewS3Storage(cfg *Config) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.S3Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}
	return &S3Storage{bucket: cfg.S3Bucket, region: cfg.S3Region}, nil
}

func (s *S3Storage) Upload(ctx context.Context, userID, fileID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	return nil, ErrS3NotImplemented
}

func (s *S3Storage) GetReader(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error) {
	return nil, ErrS3NotImplemented
}

func (s *S3Storage) GetInfo(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	return nil, ErrS3NotImplemented
}

func (s *S3Storage) Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error {
	return ErrS3NotImplemented
}
