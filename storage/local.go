package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements BlobStore on the local filesystem. Keys map to
// paths under the root directory; the public reference is baseURL + key.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a blob store rooted at dir. baseURL is prepended
// to keys to form public references (e.g. "http://localhost:8080/files").
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	return &LocalStore{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// resolve maps a key to a path under the root, rejecting traversal
func (s *LocalStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Get returns the bytes stored under key
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}

	return data, nil
}

// Put stores data under key and returns its public reference. Without
// overwrite, an existing blob under the same key is an error.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, overwrite bool) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", ErrExists
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	return s.baseURL + "/" + strings.TrimPrefix(key, "/"), nil
}

// Delete removes the blob stored under key
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}

	return nil
}
