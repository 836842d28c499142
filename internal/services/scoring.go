package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ScoringEngine renders the evaluation prompt and returns the model's raw answer.
type ScoringEngine interface {
	Score(ctx context.Context, chunks []ScoredChunk, jobDescription string) (string, error)
}

type scoringEngine struct {
	model         LanguageModel
	promptBuilder *PromptBuilder
	maxAttempts   int
	logger        *zap.Logger
}

func NewScoringEngine(model LanguageModel, maxAttempts int, logger *zap.Logger) ScoringEngine {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &scoringEngine{
		model:         model,
		promptBuilder: NewPromptBuilder(),
		maxAttempts:   maxAttempts,
		logger:        logger.With(zap.String("component", "scoring")),
	}
}

// Score implements ScoringEngine.
func (s *scoringEngine) Score(ctx context.Context, chunks []ScoredChunk, jobDescription string) (string, error) {
	prompt := s.promptBuilder.BuildATSEvaluationPrompt(FormatRAGContext(chunks), jobDescription)
	s.logger.Debug("evaluation prompt rendered", zap.Int("chars", len(prompt)), zap.Int("chunks", len(chunks)))

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		answer, err := s.model.Generate(ctx, prompt)
		if err == nil {
			s.logger.Debug("evaluation response received", zap.Int("chars", len(answer)), zap.Int("attempt", attempt))
			return answer, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrModelInvocation, errors.Join(ctxErr, err))
		}

		if attempt < s.maxAttempts {
			s.logger.Warn("model call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}
	}

	if errors.Is(lastErr, ErrModelInvocation) {
		return "", fmt.Errorf("failed after %d attempts: %w", s.maxAttempts, lastErr)
	}
	return "", fmt.Errorf("%w: failed after %d attempts: %v", ErrModelInvocation, s.maxAttempts, lastErr)
}
