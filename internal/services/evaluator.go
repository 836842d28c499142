package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/models"
)

const (
	DefaultRemoteTimeout = 60 * time.Second
	DefaultLocalTimeout  = 120 * time.Second

	maxRemoteBody = 4 << 20
)

// Submission is one résumé and job description pair to evaluate.
type Submission struct {
	Content        []byte
	Format         models.DocumentFormat
	Filename       string
	JobDescription string
}

// Tier is one attempt strategy of the resilient evaluator.
type Tier interface {
	Name() string
	Attempt(ctx context.Context, sub Submission) (*models.EvaluationRecord, error)
}

// EvaluatorService evaluates submissions and always returns a well-formed record.
type EvaluatorService interface {
	Evaluate(ctx context.Context, sub Submission) *models.EvaluationRecord
}

type evaluatorService struct {
	tiers  []Tier
	logger *zap.Logger
}

// NewEvaluatorService tries tiers in order; when all fail it synthesizes
// the terminal record.
func NewEvaluatorService(logger *zap.Logger, tiers ...Tier) EvaluatorService {
	active := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			active = append(active, t)
		}
	}
	return &evaluatorService{
		tiers:  active,
		logger: logger.With(zap.String("component", "evaluator")),
	}
}

// Evaluate implements EvaluatorService.
func (e *evaluatorService) Evaluate(ctx context.Context, sub Submission) (rec *models.EvaluationRecord) {
	var reasons []string

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("evaluation panicked", zap.Any("panic", r))
			rec = TerminalRecord(append(reasons, fmt.Sprintf("internal error: %v", r)))
		}
	}()

	for _, tier := range e.tiers {
		start := time.Now()
		result, err := tier.Attempt(ctx, sub)
		if err == nil && result != nil {
			e.logger.Info("evaluation tier succeeded",
				zap.String("tier", tier.Name()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("eligibility", string(result.Eligibility)),
			)
			return result
		}
		if err == nil {
			err = errors.New("tier returned no record")
		}

		reason := fmt.Sprintf("%s: %v", tier.Name(), err)
		reasons = append(reasons, reason)
		e.logger.Warn("evaluation tier failed",
			zap.String("tier", tier.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("reason", reason),
		)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no evaluation tiers configured")
	}
	e.logger.Error("all evaluation tiers failed", zap.Strings("reasons", reasons))
	return TerminalRecord(reasons)
}

// TerminalRecord is the guaranteed result when every tier has failed.
func TerminalRecord(reasons []string) *models.EvaluationRecord {
	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "evaluation unavailable"
	}

	return &models.EvaluationRecord{
		CandidateName: "Pending analysis",
		Eligibility:   models.EligibilityUnknown,
		Reason:        reason,
		ATSScore:      0,
		Degree:        "Pending analysis",
		Course:        "Pending analysis",
		CGPA:          "Pending analysis",
		Strengths:     []string{"Analysis pending"},
		Weaknesses:    []string{"Analysis pending"},
		Feedback:      fmt.Sprintf("Analysis failed: %s. Please try again or contact support.", reason),
		DetailedFeedback: fmt.Sprintf("The CV was received but analysis failed with error: %s. "+
			"This could be due to missing API keys, network issues, or unsupported file format. "+
			"Please ensure all AI services are properly configured.", reason),
	}
}

// remoteTier posts the submission to a remote evaluation endpoint.
type remoteTier struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewRemoteTier returns nil when url is empty so the tier is skipped.
func NewRemoteTier(url string, timeout time.Duration, client *http.Client) Tier {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &remoteTier{url: url, client: client, timeout: timeout}
}

// Name implements Tier.
func (r *remoteTier) Name() string { return "remote" }

// Attempt implements Tier.
func (r *remoteTier) Attempt(ctx context.Context, sub Submission) (*models.EvaluationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w after %s", ErrRemoteTimeout, r.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteTransport, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w while reading response", ErrRemoteTimeout)
		}
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrRemoteTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrRemoteTransport, resp.StatusCode)
	}

	var rec models.EvaluationRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response: %v", ErrRemoteTransport, err)
	}
	if rec.Eligibility == "" && rec.CandidateName == "" {
		return nil, fmt.Errorf("%w: response is not an evaluation record", ErrRemoteTransport)
	}

	return &rec, nil
}

func encodeSubmission(sub Submission) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := sub.Filename
	if filename == "" {
		filename = "cv.pdf"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="cv"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", "application/pdf")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(sub.Content); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("jd", sub.JobDescription); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// localTier runs the evaluation pipeline in-process under its own deadline.
type localTier struct {
	pipeline Pipeline
	timeout  time.Duration
}

func NewLocalTier(pipeline Pipeline, timeout time.Duration) Tier {
	if timeout <= 0 {
		timeout = DefaultLocalTimeout
	}
	return &localTier{pipeline: pipeline, timeout: timeout}
}

// Name implements Tier.
func (l *localTier) Name() string { return "local" }

type localOutcome struct {
	rec *models.EvaluationRecord
	err error
}

// Attempt implements Tier.
func (l *localTier) Attempt(ctx context.Context, sub Submission) (*models.EvaluationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	done := make(chan localOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- localOutcome{err: fmt.Errorf("pipeline panic: %v", r)}
			}
		}()
		rec, err := l.pipeline.Run(ctx, sub.Content, sub.Format, sub.JobDescription)
		done <- localOutcome{rec: rec, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrLocalProcessTimeout, l.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrLocalProcessFailure, ctx.Err())
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrLocalProcessTimeout, out.err)
			}
			return nil, fmt.Errorf("%w: %v", ErrLocalProcessFailure, out.err)
		}
		if out.rec == nil {
			return nil, fmt.Errorf("%w: empty result", ErrLocalProcessFailure)
		}
		out.rec.Normalize()
		return out.rec, nil
	}
}
