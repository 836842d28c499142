package services

import "context"

// Embedder turns texts into fixed-dimension vectors, one per input, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LanguageModel returns the raw text answer for a rendered prompt.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationOptions controls sampling for model calls.
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int
}

func (o GenerationOptions) withDefaults() GenerationOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 2048
	}
	if o.Temperature < 0 {
		o.Temperature = 0
	}
	return o
}

// AIProvider is a client that serves both embeddings and text generation.
type AIProvider interface {
	Embedder
	LanguageModel
}
