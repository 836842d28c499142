package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiEmbedModel = "text-embedding-004"

	maxEmbedChars = 40000
)

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
	Options    GenerationOptions
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	options    GenerationOptions
	logger     *zap.Logger
}

// NewGeminiService returns a client usable both as Embedder and LanguageModel.
func NewGeminiService(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (AIProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = defaultGeminiEmbedModel
	}

	return &geminiService{
		client:     client,
		modelName:  model,
		embedModel: embedModel,
		options:    cfg.Options.withDefaults(),
		logger:     logger.With(zap.String("component", "gemini")),
	}, nil
}

// EmbedTexts implements Embedder.
func (g *geminiService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.Text(truncateRunes(text, maxEmbedChars))...)
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate embedding: %v", ErrEmbeddingProvider, err)
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings", ErrEmbeddingProvider, len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at position %d", ErrEmbeddingProvider, i)
		}
		vectors[i] = e.Values
	}

	g.logger.Debug("embeddings generated", zap.Int("count", len(vectors)), zap.String("model", g.embedModel))
	return vectors, nil
}

// Generate implements LanguageModel.
func (g *geminiService) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := g.options.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(g.options.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: failed to generate text: %v", ErrModelInvocation, err)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: no response generated (nil response)", ErrModelInvocation)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
		// first candidate with content is the answer
		if builder.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text content in response", ErrModelInvocation)
	}

	g.logger.Debug("gemini response received", zap.Int("chars", len(text)), zap.String("model", g.modelName))
	return text, nil
}

// truncateRunes cuts s to at most limit characters without splitting a
// multi-byte rune.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
