package api

import (
	"context"
	"iter"
	"sync"

	"github.com/diogo/megamente/internal/models"
)

// MockGateway is a scripted Gateway for testing
type MockGateway struct {
	// Mock return values
	Fragments []string
	StreamErr error // yielded after Fragments
	Image     *ImageResult
	ImageErr  error

	// Gate, when set, is received from before each fragment is yielded,
	// letting tests observe intermediate states.
	Gate chan struct{}

	// Call recorders
	mu          sync.Mutex
	StreamCalls int
	ImageCalls  int
	LastHistory []models.Message
	LastInput   string
	LastPrompt  string
}

// Ensure MockGateway implements Gateway
var _ Gateway = (*MockGateway)(nil)

// StreamText records the call and replays Fragments, then StreamErr
func (m *MockGateway) StreamText(ctx context.Context, history []models.Message, input string) iter.Seq2[string, error] {
	m.mu.Lock()
	m.StreamCalls++
	m.LastHistory = append([]models.Message(nil), history...)
	m.LastInput = input
	fragments := append([]string(nil), m.Fragments...)
	streamErr := m.StreamErr
	gate := m.Gate
	m.mu.Unlock()

	return once(func(yield func(string, error) bool) {
		for _, f := range fragments {
			if gate != nil {
				select {
				case <-gate:
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				}
			}
			if !yield(f, nil) {
				return
			}
		}
		if streamErr != nil {
			yield("", streamErr)
		}
	})
}

// GenerateImage records the call and returns Image or ImageErr
func (m *MockGateway) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	m.mu.Lock()
	m.ImageCalls++
	m.LastPrompt = prompt
	img, err := m.Image, m.ImageErr
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if img == nil {
		return &ImageResult{Caption: FallbackCaption}, nil
	}
	out := *img
	return &out, nil
}

// Calls returns the number of stream and image calls made so far
func (m *MockGateway) Calls() (stream, image int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StreamCalls, m.ImageCalls
}
