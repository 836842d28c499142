package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildATSEvaluationPrompt_FillsPlaceholders(t *testing.T) {
	prompt := NewPromptBuilder().BuildATSEvaluationPrompt("  Jane Doe\nPython developer  ", "Backend engineer, 3+ years Go")

	assert.NotContains(t, prompt, "{context}")
	assert.NotContains(t, prompt, "{input}")
	assert.Contains(t, prompt, "<context>\nJane Doe\nPython developer\n</context>")
	assert.Contains(t, prompt, "**Job Description**:\nBackend engineer, 3+ years Go")
}

func TestBuildATSEvaluationPrompt_LabelsInOutputOrder(t *testing.T) {
	prompt := NewPromptBuilder().BuildATSEvaluationPrompt("cv", "jd")

	eligibleFormat := prompt[strings.Index(prompt, "**Output Format** (if eligible)"):]
	last := -1
	for _, label := range []string{
		LabelApplicantName, LabelCGPA, LabelDegree, LabelCourse, LabelATSScore,
		LabelStrengths, LabelWeaknesses, LabelFeedback, LabelDetailedFeedback, LabelScoreBreakdown,
	} {
		idx := strings.Index(eligibleFormat, "**"+label+"**:")
		if assert.GreaterOrEqual(t, idx, 0, "label %q missing", label) {
			assert.Greater(t, idx, last, "label %q out of order", label)
			last = idx
		}
	}

	assert.Contains(t, prompt, "**Eligibility**: Candidate is not eligible.")
	for _, c := range ScoringCriteria {
		assert.Contains(t, prompt, "- "+c.Name+": [0-100]")
	}
}

func TestFormatRAGContext(t *testing.T) {
	assert.Equal(t, "No relevant context found.", FormatRAGContext(nil))

	got := FormatRAGContext([]ScoredChunk{
		{Chunk: Chunk{Index: 2, Text: " second "}, Score: 0.9},
		{Chunk: Chunk{Index: 0, Text: "first"}, Score: 0.5},
	})
	assert.Equal(t, "second\n\nfirst", got)
}
