// Package localfs persists rendered outputs on local disk for static
// serving.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/output"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) BasePath() string {
	return s.basePath
}

func (s *Storage) Save(_ context.Context, filename string, data io.Reader) error {
	if strings.Contains(filename, "..") || strings.ContainsRune(filename, os.PathSeparator) {
		return fmt.Errorf("invalid output filename: %s", filename)
	}

	path := filepath.Join(s.basePath, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
