// Package kv provides the durable key-value storage used to persist sessions.
package kv

import (
	"fmt"
	"path/filepath"

	apierrors "github.com/diogo/megamente/internal/errors"
)

// Store is a minimal durable key-value store.
// Get returns apierrors.ErrNotFound when the key has never been written.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the store for the named backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(filepath.Join(dir, "store"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "megamente.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %s or %s)", backend, BackendFile, BackendSQLite)
	}
}

// Backends returns the accepted backend names
func Backends() []string {
	return []string{BackendFile, BackendSQLite}
}

func notFound(key string) error {
	return apierrors.NewStorageError("read", key, apierrors.ErrNotFound)
}
