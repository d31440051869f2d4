package api

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/models"
)

// contentGenerator is the subset of *genai.Models the gateway uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiGateway implements Gateway on top of the Gemini API
type GeminiGateway struct {
	models      contentGenerator
	chatModel   models.Model
	imageModel  models.Model
	aspectRatio string
	system      string
	logger      *zap.Logger
}

// Ensure GeminiGateway implements Gateway
var _ Gateway = (*GeminiGateway)(nil)

// Option is a function that configures the gateway
type Option func(*GeminiGateway)

// WithChatModel sets the model used for text replies
func WithChatModel(model models.Model) Option {
	return func(g *GeminiGateway) {
		if model.Name != "" {
			g.chatModel = model
		}
	}
}

// WithImageModel sets the model used for image generation
func WithImageModel(model models.Model) Option {
	return func(g *GeminiGateway) {
		if model.Name != "" {
			g.imageModel = model
		}
	}
}

// WithAspectRatio overrides the aspect ratio requested for images
func WithAspectRatio(ratio string) Option {
	return func(g *GeminiGateway) {
		g.aspectRatio = ratio
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *GeminiGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// withGenerator replaces the genai backend (tests)
func withGenerator(gen contentGenerator) Option {
	return func(g *GeminiGateway) {
		g.models = gen
	}
}

// NewGateway creates a gateway authenticated with apiKey
func NewGateway(ctx context.Context, apiKey string, opts ...Option) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return newGateway(append([]Option{withGenerator(client.Models)}, opts...)...), nil
}

func newGateway(opts ...Option) *GeminiGateway {
	g := &GeminiGateway{
		chatModel:   models.ModelFromName(models.DefaultChatModel),
		imageModel:  models.ModelFromName(models.DefaultImageModel),
		aspectRatio: DefaultAspectRatio,
		system:      SystemInstruction,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ChatModel returns the model used for text replies
func (g *GeminiGateway) ChatModel() models.Model {
	return g.chatModel
}

// ImageModel returns the model used for images
func (g *GeminiGateway) ImageModel() models.Model {
	return g.imageModel
}
