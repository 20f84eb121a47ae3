package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/omeshsingh/bnsp/config"
)

// ErrNotFound is returned when the requested dataset file does not exist
var ErrNotFound = errors.New("file not found")

// Source reads dataset files used by the section importer
type Source interface {
	// Open returns a reader for the named file; the caller closes it
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Location describes where name is read from, for logs
	Location(name string) string
}

// SourceType represents the storage backend type
type SourceType string

const (
	SourceTypeLocal SourceType = "local"
	SourceTypeS3    SourceType = "s3"
)

// NewSource creates a dataset source from the storage configuration
func NewSource(ctx context.Context, cfg config.StorageConfig) (Source, error) {
	switch SourceType(cfg.Type) {
	case SourceTypeLocal:
		return NewLocalSource(cfg.LocalPath), nil
	case SourceTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("s3 bucket is required for S3 storage")
		}
		return NewS3Source(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
