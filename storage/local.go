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

// LocalStore writes files under a directory served by the router at publicURL.
type LocalStore struct {
	dir       string
	publicURL string
}

func NewLocalStore(dir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, publicURL: publicURL}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid file key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *LocalStore) Put(_ context.Context, key, _ string, body io.Reader, size int64) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dir for %s: %w", key, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", key, err)
	}
	defer f.Close()

	written, err := io.Copy(f, body)
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if size > 0 && written != size {
		os.Remove(dst)
		return "", fmt.Errorf("short write for %s: %d of %d bytes", key, written, size)
	}
	return publicURL(s.publicURL, key), nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
