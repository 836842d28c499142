package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"alfredoptarigan/cv-align/internal/models"
)

// keywordEmbedder maps each text to a 3-d vector by the keywords it contains.
type keywordEmbedder struct {
	err   error
	calls int32
}

func (k *keywordEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&k.calls, 1)
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		v := []float32{0, 0, 0}
		if strings.Contains(t, "python") {
			v[0] = 1
		}
		if strings.Contains(t, "experience") {
			v[1] = 1
		}
		if strings.Contains(t, "education") {
			v[2] = 1
		}
		out[i] = v
	}
	return out, nil
}

// scriptedModel returns answers and errors in order, repeating the last one.
type scriptedModel struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	prompts []string
}

func (s *scriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	var err error
	if len(s.errs) > 0 {
		err = s.errs[min(i, len(s.errs)-1)]
	}
	if err != nil {
		return "", err
	}
	if len(s.answers) == 0 {
		return "", nil
	}
	return s.answers[min(i, len(s.answers)-1)], nil
}

func (s *scriptedModel) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// textLoader returns fixed text regardless of content.
type textLoader struct {
	text string
	err  error
}

func (l textLoader) LoadText(content []byte, format models.DocumentFormat) (string, error) {
	return l.text, l.err
}

// stubPipeline is a Pipeline driven by a function.
type stubPipeline struct {
	run   func(ctx context.Context) (*models.EvaluationRecord, error)
	calls int32
}

func (s *stubPipeline) Run(ctx context.Context, content []byte, format models.DocumentFormat, jd string) (*models.EvaluationRecord, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.run(ctx)
}

func (s *stubPipeline) Analyze(ctx context.Context, content []byte, format models.DocumentFormat, jd string) *models.EvaluationRecord {
	rec, err := s.Run(ctx, content, format, jd)
	if err != nil {
		return AnalysisErrorRecord(err)
	}
	return rec
}

func (s *stubPipeline) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

const eligibleAnswer = "**Applicant Name**: Jane Doe\n" +
	"\n" +
	"**College CGPA/Percentage**: 8.9\n" +
	"\n" +
	"**Degree**: B.Tech\n" +
	"\n" +
	"**Course/Major**: Computer Science\n" +
	"\n" +
	"**ATS Score**: 82/100\n" +
	"\n" +
	"**Strengths**:\n" +
	"- Strong Python skills.\n" +
	"- Led distributed systems projects.\n" +
	"\n" +
	"**Weaknesses**:\n" +
	"- Limited cloud certifications.\n" +
	"- No Kubernetes experience.\n" +
	"\n" +
	"**Feedback**:\n" +
	"- Candidate is eligible.\n" +
	"- Good fit for the backend role.\n" +
	"- Should add cloud certifications.\n" +
	"\n" +
	"**Detailed Feedback**:\n" +
	"- Meets every stated requirement.\n" +
	"- Solid backend background.\n" +
	"\n" +
	"**Score Breakdown**:\n" +
	"- Skill Match: 90\n" +
	"- Relevant Experience: 80\n" +
	"- Education: 80\n" +
	"- Certifications or Courses: 60\n" +
	"- Soft Skills: 70\n" +
	"- Projects and Achievements: 90\n" +
	"- Formatting & Professionalism: 80\n" +
	"- Customization to Job Role: 80\n"

const notEligibleAnswer = "**Applicant Name**: John Smith\n" +
	"\n" +
	"**Eligibility**: Candidate is not eligible.\n" +
	"**Reason**: Requires 5 years of Python experience; candidate has 3 years.\n"
