package services

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/config"
)

const defaultModelAttempts = 2

// NewEmbedderFromConfig builds the configured embedding provider.
func NewEmbedderFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIService(OpenAIConfig{
			APIKey:     cfg.Embedding.OpenAIAPIKey,
			BaseURL:    cfg.Embedding.OpenAIURL,
			EmbedModel: cfg.Embedding.Model,
		}, logger)
	case config.ProviderGemini, "":
		return NewGeminiService(ctx, GeminiConfig{
			APIKey:     cfg.Embedding.GoogleAPIKey,
			EmbedModel: cfg.Embedding.Model,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// NewLanguageModelFromConfig builds the configured scoring model client.
func NewLanguageModelFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LanguageModel, error) {
	options := GenerationOptions{Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens}

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return NewGeminiService(ctx, GeminiConfig{
			APIKey:  cfg.LLM.GoogleAPIKey,
			Model:   cfg.LLM.Model,
			Options: options,
		}, logger)
	case config.ProviderGroq, config.ProviderOpenAI, "":
		return NewOpenAIService(OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Options: options,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

// NewIndexFactoryFromConfig selects the per-evaluation vector index backend.
func NewIndexFactoryFromConfig(cfg *config.Config, logger *zap.Logger) (IndexFactory, error) {
	switch cfg.Pipeline.VectorBackend {
	case config.BackendQdrant:
		return NewQdrantIndexFactory(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.CollectionPrefix, logger)
	case config.BackendMemory, "":
		return NewMemoryIndexFactory(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Pipeline.VectorBackend)
	}
}

// NewPipelineFromConfig wires the local evaluation pipeline. Credentials come
// from cfg only.
func NewPipelineFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Pipeline, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	embedder, err := NewEmbedderFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	model, err := NewLanguageModelFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	indexes, err := NewIndexFactoryFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	return NewPipeline(
		NewDocumentLoader(),
		NewTextChunker(),
		NewRetriever(embedder, indexes, logger),
		NewScoringEngine(model, defaultModelAttempts, logger),
		PipelineOptions{
			ChunkSize:    cfg.Pipeline.ChunkSize,
			ChunkOverlap: cfg.Pipeline.ChunkOverlap,
			TopK:         cfg.Pipeline.TopK,
		},
		logger,
	), nil
}

// NewEvaluatorFromConfig builds the remote, local, terminal fallback chain.
// A nil pipeline leaves only the remote tier.
func NewEvaluatorFromConfig(cfg *config.Config, pipeline Pipeline, logger *zap.Logger) EvaluatorService {
	var local Tier
	if pipeline != nil {
		local = NewLocalTier(pipeline, cfg.Resilience.LocalTimeout)
	}
	return NewEvaluatorService(
		logger,
		NewRemoteTier(cfg.Resilience.RemoteURL, cfg.Resilience.RemoteTimeout, http.DefaultClient),
		local,
	)
}
