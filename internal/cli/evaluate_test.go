package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/config"
	"alfredoptarigan/cv-align/internal/models"
	"alfredoptarigan/cv-align/internal/services"
)

type fixedPipeline struct {
	record  *models.EvaluationRecord
	format  models.DocumentFormat
	content []byte
	jd      string
}

func (f *fixedPipeline) Run(ctx context.Context, content []byte, format models.DocumentFormat, jd string) (*models.EvaluationRecord, error) {
	return f.record, nil
}

func (f *fixedPipeline) Analyze(ctx context.Context, content []byte, format models.DocumentFormat, jd string) *models.EvaluationRecord {
	f.content, f.format, f.jd = content, format, jd
	return f.record
}

func credentialedConfig() *config.Config {
	return &config.Config{
		Embedding: config.EmbeddingConfig{Provider: config.ProviderGemini, GoogleAPIKey: "g"},
		LLM:       config.LLMConfig{Provider: config.ProviderGroq, APIKey: "k"},
	}
}

func writeCV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jane.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return path
}

func execute(cfg *config.Config, p services.Pipeline, args ...string) (string, error) {
	var out bytes.Buffer
	factory := func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.Pipeline, error) {
		if p == nil {
			return nil, errors.New("no pipeline")
		}
		return p, nil
	}

	cmd := EvaluateCmd(cfg, factory, &out, zap.NewNop())
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestEvaluateCmd_PrintsOneJSONLine(t *testing.T) {
	p := &fixedPipeline{record: &models.EvaluationRecord{
		CandidateName: "Jane Doe",
		Eligibility:   models.EligibilityEligible,
		ATSScore:      80,
		Strengths:     []string{"Go", "SQL"},
		Weaknesses:    []string{"Docker", "AWS"},
	}}
	path := writeCV(t)

	out, err := execute(credentialedConfig(), p, "--cv", path, "--job", "Backend engineer")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "\n"))
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "eligible", got["eligibility"])
	assert.Equal(t, float64(80), got["ats_score"])

	assert.Equal(t, models.FormatPDF, p.format)
	assert.Equal(t, []byte("%PDF-1.4"), p.content)
	assert.Equal(t, "Backend engineer", p.jd)
}

func TestEvaluateCmd_ErrorRecordExitsCleanly(t *testing.T) {
	p := &fixedPipeline{record: services.AnalysisErrorRecord(services.ErrLoadFailure)}

	out, err := execute(credentialedConfig(), p, "--cv", writeCV(t), "--job", "jd")
	require.NoError(t, err)
	assert.Contains(t, out, `"candidate_name":"Error analyzing CV"`)
	assert.Contains(t, out, `"eligibility":"error"`)
}

func TestEvaluateCmd_MissingCredentials(t *testing.T) {
	cfg := credentialedConfig()
	cfg.LLM.APIKey = ""

	out, err := execute(cfg, &fixedPipeline{}, "--cv", writeCV(t), "--job", "jd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
	assert.Empty(t, out)
}

func TestEvaluateCmd_MissingFlags(t *testing.T) {
	cfg := credentialedConfig()

	_, err := execute(cfg, &fixedPipeline{}, "--job", "jd")
	assert.Error(t, err, "--cv is required")

	_, err = execute(cfg, &fixedPipeline{}, "--cv", writeCV(t))
	assert.Error(t, err, "--job is required")
}

func TestEvaluateCmd_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unreadable cv", []string{"--cv", filepath.Join(t.TempDir(), "missing.pdf"), "--job", "jd"}},
		{"blank job", []string{"--cv", writeCV(t), "--job", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fixedPipeline{}
			out, err := execute(credentialedConfig(), p, tt.args...)
			require.NoError(t, err)

			assert.Equal(t, 1, strings.Count(out, "\n"))
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, "error", got["eligibility"])
			assert.Equal(t, "Error analyzing CV", got["candidate_name"])
			assert.Equal(t, float64(0), got["ats_score"])
			assert.NotEmpty(t, got["reason"])
			assert.Empty(t, p.jd, "pipeline must not run")
		})
	}
}

func TestEvaluateCmd_PipelineBuildFailurePrintsRecord(t *testing.T) {
	out, err := execute(credentialedConfig(), nil, "--cv", writeCV(t), "--job", "jd")
	require.NoError(t, err)
	assert.Contains(t, out, `"eligibility":"error"`)
	assert.Contains(t, out, "no pipeline")
}
