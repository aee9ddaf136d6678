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

// URLPrefix is where the server exposes locally stored files.
const URLPrefix = "/api/uploads/"

// ErrInvalidKey rejects keys that would escape the upload directory.
var ErrInvalidKey = errors.New("invalid storage key")

// LocalStore writes objects as flat files under Dir.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	path, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return URLPrefix + key, nil
}

// Path resolves key to a file inside Dir.
func (s *LocalStore) Path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.Dir, key), nil
}
