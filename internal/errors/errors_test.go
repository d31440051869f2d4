package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGatewayError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewGatewayError("stream", "gemini-3-flash-preview", cause)

	expected := "gateway stream (gemini-3-flash-preview): connection reset"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrGatewayFailed) {
		t.Error("expected GatewayError to match ErrGatewayFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("expected GatewayError to unwrap to its cause")
	}
	if errors.Is(err, ErrStorageFailed) {
		t.Error("GatewayError must not match ErrStorageFailed")
	}
}

func TestGatewayError_NoModel(t *testing.T) {
	err := NewGatewayError("image", "", errors.New("boom"))
	if err.Error() != "gateway image: boom" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestStorageError(t *testing.T) {
	err := NewStorageError("read", "mega_mente_sessions", errors.New("disk full"))

	expected := `storage read "mega_mente_sessions": disk full`
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
	if !IsStorageError(err) {
		t.Error("expected IsStorageError to be true")
	}
	if IsGatewayError(err) {
		t.Error("expected IsGatewayError to be false")
	}
}

func TestWrappedErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		isGateway bool
		isStorage bool
	}{
		{"wrapped gateway", fmt.Errorf("send: %w", NewGatewayError("stream", "m", errors.New("x"))), true, false},
		{"wrapped storage", fmt.Errorf("persist: %w", NewStorageError("write", "k", errors.New("x"))), false, true},
		{"plain", errors.New("plain"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsGatewayError(tt.err); got != tt.isGateway {
				t.Errorf("IsGatewayError() = %v, want %v", got, tt.isGateway)
			}
			if got := IsStorageError(tt.err); got != tt.isStorage {
				t.Errorf("IsStorageError() = %v, want %v", got, tt.isStorage)
			}
		})
	}
}

func TestDownloadError(t *testing.T) {
	err := NewDownloadError("not a data URI", "")
	if err.Error() != "download failed: not a data URI" {
		t.Errorf("Error() = %s", err.Error())
	}

	withPath := NewDownloadError("permission denied", "/tmp/x.png")
	if withPath.Error() != "download failed: permission denied (/tmp/x.png)" {
		t.Errorf("Error() = %s", withPath.Error())
	}

	if !IsDownloadError(fmt.Errorf("save: %w", withPath)) {
		t.Error("expected IsDownloadError to see through wrapping")
	}
}
