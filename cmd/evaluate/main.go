package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alfredoptarigan/cv-align/internal/cli"
	"alfredoptarigan/cv-align/internal/config"
	"alfredoptarigan/cv-align/internal/logger"
	"alfredoptarigan/cv-align/internal/services"
)

var version = "dev"

func main() {
	cfg := config.Load()

	log, err := logger.NewStderr(cfg.Server.LogJSON, cfg.Server.LogDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.EnvFileLoaded {
		log.Debug("no .env file found, using environment and default values")
	}

	rootCmd := &cobra.Command{
		Use:   "cv-align",
		Short: "Evaluate a résumé against a job description",
		Long: `cv-align scores a résumé against a job description and prints the evaluation as one line of JSON.

Environment variables:
  GOOGLE_API_KEY   Gemini key for embeddings (and scoring when LLM_PROVIDER=gemini)
  GROQ_API_KEY     Groq key for scoring (default LLM_PROVIDER=groq)
  OPENAI_API_KEY   OpenAI key when a provider is set to openai`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.EvaluateCmd(cfg, services.NewPipelineFromConfig, os.Stdout, log))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
