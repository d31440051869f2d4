// Package download saves generated images to disk.
package download

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apierrors "github.com/diogo/megamente/internal/errors"
)

// DefaultFilename is the name given to downloaded images
const DefaultFilename = "megamente-ia.png"

// maxAttempts bounds the search for a free filename
const maxAttempts = 1000

// Image is a decoded data URI
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes a base64 "data:<mime>;base64,<payload>" URI
func ParseDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, apierrors.NewDownloadError("not a data URI", "")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, apierrors.NewDownloadError("data URI has no payload", "")
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, apierrors.NewDownloadError("data URI is not base64 encoded", "")
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, apierrors.NewDownloadError("data URI is not an image: "+mime, "")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apierrors.NewDownloadError("invalid base64 payload: "+err.Error(), "")
	}
	if len(data) == 0 {
		return nil, apierrors.NewDownloadError("empty image", "")
	}
	return &Image{MIMEType: mime, Data: data}, nil
}

// SaveDataURI writes the image in uri to dir and returns the absolute path.
// An existing file is never overwritten: megamente-ia.png becomes
// megamente-ia-1.png, megamente-ia-2.png and so on.
func SaveDataURI(uri, dir, filename string) (string, error) {
	img, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = DefaultFilename
	}
	filename = sanitizeFilename(filename)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", apierrors.NewDownloadError("failed to create directory: "+err.Error(), dir)
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 0; i < maxAttempts; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", apierrors.NewDownloadError("failed to create file: "+err.Error(), path)
		}

		if _, err := f.Write(img.Data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", apierrors.NewDownloadError("failed to save file: "+err.Error(), path)
		}
		if err := f.Close(); err != nil {
			return "", apierrors.NewDownloadError("failed to save file: "+err.Error(), path)
		}

		if abs, err := filepath.Abs(path); err == nil {
			return abs, nil
		}
		return path, nil
	}
	return "", apierrors.NewDownloadError("no free filename", filepath.Join(dir, filename))
}

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeFilename removes characters not allowed in filenames
func sanitizeFilename(name string) string {
	safe := strings.TrimSpace(invalidChars.ReplaceAllString(name, "_"))
	if safe == "" || safe == "." || safe == ".." {
		return DefaultFilename
	}
	return safe
}
