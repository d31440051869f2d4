// Package errors provides custom error types for megamente.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrBusy            = errors.New("another message is still being answered")
	ErrEmptyInput      = errors.New("message is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotFound        = errors.New("key not found")
	ErrNoAPIKey        = errors.New("no API key configured")
	ErrStreamConsumed  = errors.New("stream already consumed")
	ErrGatewayFailed   = errors.New("remote call failed")
	ErrStorageFailed   = errors.New("storage operation failed")
)

// GatewayError represents a failed call to the remote AI provider.
type GatewayError struct {
	Op    string // "stream" or "image"
	Model string
	Err   error
}

func (e *GatewayError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("gateway %s (%s): %v", e.Op, e.Model, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *GatewayError) Is(target error) bool {
	if target == ErrGatewayFailed {
		return true
	}
	_, ok := target.(*GatewayError)
	return ok
}

// NewGatewayError creates a new GatewayError
func NewGatewayError(op, model string, err error) *GatewayError {
	return &GatewayError{Op: op, Model: model, Err: err}
}

// StorageError represents a failure reading or writing the durable store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *StorageError) Is(target error) bool {
	if target == ErrStorageFailed {
		return true
	}
	_, ok := target.(*StorageError)
	return ok
}

// NewStorageError creates a new StorageError
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err}
}

// DownloadError represents a failure saving a generated image to disk
type DownloadError struct {
	Message string
	Path    string
}

func (e *DownloadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("download failed: %s", e.Message)
	}
	return fmt.Sprintf("download failed: %s (%s)", e.Message, e.Path)
}

// NewDownloadError creates a new DownloadError
func NewDownloadError(message, path string) *DownloadError {
	return &DownloadError{Message: message, Path: path}
}

// IsGatewayError reports whether err came from the remote provider.
func IsGatewayError(err error) bool {
	return errors.Is(err, ErrGatewayFailed)
}

// IsStorageError reports whether err came from the durable store.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageFailed)
}

// IsDownloadError reports whether err is a DownloadError.
func IsDownloadError(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}
