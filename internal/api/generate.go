package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/models"
)

// StreamText streams a chat reply for input, given the prior history.
func (g *GeminiGateway) StreamText(ctx context.Context, history []models.Message, input string) iter.Seq2[string, error] {
	contents := buildContents(history, input)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.system, genai.RoleUser),
	}
	model := g.chatModel.Name

	return once(func(yield func(string, error) bool) {
		start := time.Now()
		fragments := 0

		for resp, err := range g.models.GenerateContentStream(ctx, model, contents, cfg) {
			if err != nil {
				g.logger.Warn("stream failed",
					zap.String("model", model),
					zap.Int("fragments", fragments),
					zap.Error(err))
				yield("", apierrors.NewGatewayError("stream", model, err))
				return
			}

			text := responseText(resp)
			if text == "" {
				continue
			}
			fragments++
			if !yield(text, nil) {
				return
			}
		}

		g.logger.Debug("stream finished",
			zap.String("model", model),
			zap.Int("fragments", fragments),
			zap.Int("history", len(contents)-1),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// GenerateImage asks the image model for a single image
func (g *GeminiGateway) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	model := g.imageModel.Name
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if g.aspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: g.aspectRatio}
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		g.logger.Warn("image generation failed", zap.String("model", model), zap.Error(err))
		return nil, apierrors.NewGatewayError("image", model, err)
	}

	result := parseImageResponse(resp)
	g.logger.Debug("image generated",
		zap.String("model", model),
		zap.Bool("has_image", result.HasImage()),
		zap.Int("data_uri_bytes", len(result.ImageURL)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// buildContents converts history to provider contents and appends input.
// Image messages are skipped: the chat model only understands text. Empty
// messages are skipped as the API rejects empty parts.
func buildContents(history []models.Message, input string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		if m.EffectiveKind() == models.KindImage || m.Content == "" {
			continue
		}
		var role genai.Role = genai.RoleUser
		if m.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(input, genai.RoleUser))
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text += part.Text
	}
	return text
}

// parseImageResponse extracts the inline image and caption of the first
// candidate. The last text part wins as the caption.
func parseImageResponse(resp *genai.GenerateContentResponse) *ImageResult {
	result := &ImageResult{}
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			switch {
			case part == nil:
			case part.InlineData != nil:
				result.ImageURL = dataURI(part.InlineData.MIMEType, part.InlineData.Data)
			case part.Text != "":
				result.Caption = part.Text
			}
		}
	}
	if result.Caption == "" {
		result.Caption = FallbackCaption
	}
	return result
}

func dataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
