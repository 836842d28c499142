package services

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/models"
)

type PipelineOptions struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// DefaultPipelineOptions mirrors the shipped configuration defaults.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{ChunkSize: 1000, ChunkOverlap: 200, TopK: DefaultTopK}
}

// Pipeline is the in-process résumé evaluation: load, chunk, retrieve, score, parse.
type Pipeline interface {
	// Run returns an error for load, chunk, embedding and model failures.
	// Parse problems never error; they degrade into the returned record.
	Run(ctx context.Context, content []byte, format models.DocumentFormat, jobDescription string) (*models.EvaluationRecord, error)
	// Analyze is Run with failures converted into an error record.
	Analyze(ctx context.Context, content []byte, format models.DocumentFormat, jobDescription string) *models.EvaluationRecord
}

type pipeline struct {
	loader    DocumentLoader
	chunker   TextChunker
	retriever Retriever
	scorer    ScoringEngine
	options   PipelineOptions
	logger    *zap.Logger
}

func NewPipeline(
	loader DocumentLoader,
	chunker TextChunker,
	retriever Retriever,
	scorer ScoringEngine,
	options PipelineOptions,
	logger *zap.Logger,
) Pipeline {
	defaults := DefaultPipelineOptions()
	if options.ChunkSize <= 0 {
		options.ChunkSize = defaults.ChunkSize
	}
	if options.ChunkOverlap < 0 || options.ChunkOverlap >= options.ChunkSize {
		options.ChunkOverlap = options.ChunkSize / 5
	}
	if options.TopK <= 0 {
		options.TopK = defaults.TopK
	}

	return &pipeline{
		loader:    loader,
		chunker:   chunker,
		retriever: retriever,
		scorer:    scorer,
		options:   options,
		logger:    logger.With(zap.String("component", "pipeline")),
	}
}

// Run implements Pipeline.
func (p *pipeline) Run(ctx context.Context, content []byte, format models.DocumentFormat, jobDescription string) (*models.EvaluationRecord, error) {
	text, err := p.loader.LoadText(content, format)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("document loaded", zap.String("format", string(format)), zap.Int("chars", len(text)))

	chunks, err := p.chunker.ChunkText(text, p.options.ChunkSize, p.options.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	hits, err := p.retriever.Retrieve(ctx, chunks, jobDescription, p.options.TopK)
	if err != nil {
		return nil, err
	}

	answer, err := p.scorer.Score(ctx, hits, jobDescription)
	if err != nil {
		return nil, err
	}

	result := ParseOutput(answer)
	switch result.Outcome {
	case ParseOutcomePartiallyParsed:
		p.logger.Warn("model output partially parsed", zap.Strings("missing", result.Missing))
	case ParseOutcomeFailed:
		p.logger.Warn("model output could not be parsed", zap.String("reason", result.Record.Reason))
	}

	rec := result.Record
	if rec.Eligibility == models.EligibilityEligible {
		p.verifyScore(&rec, result.Breakdown)
	}
	rec.Normalize()

	p.logger.Info("evaluation finished",
		zap.String("eligibility", string(rec.Eligibility)),
		zap.Int("ats_score", rec.ATSScore),
		zap.Int("chunks", len(chunks)),
		zap.String("outcome", string(result.Outcome)),
	)
	return &rec, nil
}

// verifyScore replaces a reported score that disagrees with its own breakdown.
func (p *pipeline) verifyScore(rec *models.EvaluationRecord, breakdown map[string]int) {
	check := CheckScore(rec.ATSScore, breakdown)
	if !check.Available || check.Consistent {
		return
	}

	recomputed := int(math.Round(check.Computed))
	p.logger.Warn("reported ATS score disagrees with breakdown",
		zap.Int("reported", check.Reported),
		zap.Float64("computed", check.Computed),
	)
	rec.ATSScore = recomputed
}

// Analyze implements Pipeline.
func (p *pipeline) Analyze(ctx context.Context, content []byte, format models.DocumentFormat, jobDescription string) *models.EvaluationRecord {
	rec, err := p.Run(ctx, content, format, jobDescription)
	if err != nil {
		p.logger.Error("error analyzing CV", zap.Error(err))
		return AnalysisErrorRecord(err)
	}
	return rec
}

// AnalysisErrorRecord is the record reported when the pipeline itself fails.
func AnalysisErrorRecord(err error) *models.EvaluationRecord {
	rec := &models.EvaluationRecord{
		CandidateName: "Error analyzing CV",
		Eligibility:   models.EligibilityError,
		Reason:        fmt.Sprintf("Failed to analyze CV: %v", err),
	}
	rec.Normalize()
	return rec
}
