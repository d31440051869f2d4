// Package api is the gateway between megamente and the Gemini API.
package api

import (
	"context"
	"iter"

	"github.com/diogo/megamente/internal/models"
)

// FallbackCaption is returned as the caption when the provider sends no text with an image
const FallbackCaption = "Aqui está a imagem que você pediu:"

// ImageResult is the outcome of an image request.
// An empty ImageURL means no image was produced; that is not an error.
type ImageResult struct {
	ImageURL string // data URI
	Caption  string
}

// HasImage reports whether the provider returned image data
func (r *ImageResult) HasImage() bool {
	return r != nil && r.ImageURL != ""
}

// Gateway exposes the two remote operations the conversation needs.
type Gateway interface {
	// StreamText sends history plus input and yields response fragments in
	// delivery order. The sequence can be ranged over once; a failure is
	// yielded as a single non-nil error after which iteration stops.
	StreamText(ctx context.Context, history []models.Message, input string) iter.Seq2[string, error]

	// GenerateImage requests one image for prompt.
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)
}
