package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/config"
	"alfredoptarigan/cv-align/internal/models"
	"alfredoptarigan/cv-align/internal/services"
)

// PipelineFactory builds the local evaluation pipeline from configuration.
type PipelineFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.Pipeline, error)

// EvaluateCmd creates the evaluate command. Only missing flags and missing
// credentials return an error; every other failure is printed as a record.
func EvaluateCmd(cfg *config.Config, newPipeline PipelineFactory, out io.Writer, logger *zap.Logger) *cobra.Command {
	var (
		cvPath string
		job    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate --cv <path> --job <text>",
		Short: "Evaluate a résumé file against a job description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), cfg, newPipeline, out, logger, cvPath, job)
		},
	}

	cmd.Flags().StringVar(&cvPath, "cv", "", "Path to the résumé file (PDF)")
	cmd.Flags().StringVar(&job, "job", "", "Job description text")
	_ = cmd.MarkFlagRequired("cv")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func runEvaluate(
	ctx context.Context,
	cfg *config.Config,
	newPipeline PipelineFactory,
	out io.Writer,
	logger *zap.Logger,
	cvPath, job string,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	if strings.TrimSpace(job) == "" {
		logger.Warn("empty job description")
		return printRecord(out, services.AnalysisErrorRecord(errors.New("job description is empty")))
	}

	content, err := os.ReadFile(cvPath)
	if err != nil {
		logger.Warn("failed to read CV file", zap.String("path", cvPath), zap.Error(err))
		return printRecord(out, services.AnalysisErrorRecord(fmt.Errorf("failed to read CV file: %w", err)))
	}

	pipeline, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", zap.Error(err))
		return printRecord(out, services.AnalysisErrorRecord(err))
	}

	return printRecord(out, pipeline.Analyze(ctx, content, models.FormatFromFilename(cvPath), job))
}

func printRecord(out io.Writer, record *models.EvaluationRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}

	_, err = fmt.Fprintln(out, string(line))
	return err
}
