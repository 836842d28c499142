package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultOpenAIEmbedModel = openai.SmallEmbedding3

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	EmbedModel string
	Options    GenerationOptions
}

// chatAPI is the subset of the go-openai client used here.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// openAIService talks to any OpenAI-compatible endpoint, Groq included.
type openAIService struct {
	api        chatAPI
	model      string
	embedModel openai.EmbeddingModel
	options    GenerationOptions
	logger     *zap.Logger
}

func NewOpenAIService(cfg OpenAIConfig, logger *zap.Logger) (AIProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai-compatible api key is required")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return newOpenAIService(openai.NewClientWithConfig(clientCfg), cfg, logger), nil
}

func newOpenAIService(api chatAPI, cfg OpenAIConfig, logger *zap.Logger) *openAIService {
	embedModel := openai.EmbeddingModel(strings.TrimSpace(cfg.EmbedModel))
	if embedModel == "" {
		embedModel = defaultOpenAIEmbedModel
	}

	return &openAIService{
		api:        api,
		model:      cfg.Model,
		embedModel: embedModel,
		options:    cfg.Options.withDefaults(),
		logger:     logger.With(zap.String("component", "openai"), zap.String("model", cfg.Model)),
	}
}

// Generate implements LanguageModel.
func (o *openAIService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.options.Temperature,
		MaxTokens:   o.options.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion failed: %v", ErrModelInvocation, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrModelInvocation)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrModelInvocation)
	}

	o.logger.Debug("completion received", zap.Int("chars", len(text)), zap.Int("total_tokens", resp.Usage.TotalTokens))
	return text, nil
}

// EmbedTexts implements Embedder.
func (o *openAIService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: o.embedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create embeddings: %v", ErrEmbeddingProvider, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingProvider, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: malformed embedding at index %d", ErrEmbeddingProvider, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}
