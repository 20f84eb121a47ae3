package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalSource reads dataset files from a directory
type LocalSource struct {
	basePath string
}

// NewLocalSource creates a source rooted at basePath
func NewLocalSource(basePath string) *LocalSource {
	return &LocalSource{basePath: basePath}
}

// Open opens name relative to the base directory
func (s *LocalSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fullPath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Location returns the file path name resolves to
func (s *LocalSource) Location(name string) string {
	return filepath.Join(s.basePath, name)
}

func (s *LocalSource) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file name %q: must be relative to %s", name, s.basePath)
	}
	return filepath.Join(s.basePath, clean), nil
}
