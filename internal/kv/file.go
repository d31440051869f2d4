package kv

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	apierrors "github.com/diogo/megamente/internal/errors"
)

// FileStore keeps each key in its own JSON file under a base directory
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a file store, creating baseDir if needed
func NewFileStore(baseDir string) (*FileStore, error) {
	// 0o700: sessions may contain private conversations
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Get reads the value stored under key
func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(key)
		}
		return nil, apierrors.NewStorageError("read", key, err)
	}
	return data, nil
}

// Set replaces the value stored under key.
// The file is written to a temporary name first and renamed into place.
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
	if err != nil {
		return apierrors.NewStorageError("write", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apierrors.NewStorageError("write", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apierrors.NewStorageError("write", key, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return apierrors.NewStorageError("write", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return apierrors.NewStorageError("write", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return apierrors.NewStorageError("delete", key, err)
	}
	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

// Dir returns the directory holding the key files
func (s *FileStore) Dir() string {
	return s.baseDir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, url.PathEscape(key)+".json")
}
