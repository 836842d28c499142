package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-align/internal/models"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(document *models.Document) error {
	return m.Called(document).Error(0)
}

func (m *MockDocumentRepository) FindByID(id uuid.UUID) (*models.Document, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

type MockEvaluationRepository struct {
	mock.Mock
}

func (m *MockEvaluationRepository) Create(eval *models.CandidateEvaluation) error {
	return m.Called(eval).Error(0)
}

func (m *MockEvaluationRepository) FindByID(id uuid.UUID) (*models.CandidateEvaluation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateEvaluation), args.Error(1)
}

func (m *MockEvaluationRepository) ClaimJob(id uuid.UUID) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvaluationRepository) UpdateResult(id uuid.UUID, record *models.EvaluationRecord) error {
	return m.Called(id, record).Error(0)
}

func (m *MockEvaluationRepository) FindPendingJobs(limit int) ([]models.CandidateEvaluation, error) {
	args := m.Called(limit)
	return args.Get(0).([]models.CandidateEvaluation), args.Error(1)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) SaveFile(file *multipart.FileHeader, fileType string) (string, string, error) {
	args := m.Called(file, fileType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorageService) ReadFile(filePath string) ([]byte, error) {
	args := m.Called(filePath)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageService) GetFilePath(filename string) string {
	return m.Called(filename).String(0)
}

func (m *MockStorageService) DeleteFile(filename string) error {
	return m.Called(filename).Error(0)
}

func (m *MockStorageService) EnsureUploadDir() error {
	return m.Called().Error(0)
}

type MockWorker struct {
	mock.Mock
}

func (m *MockWorker) Start(ctx context.Context) { m.Called(ctx) }

func (m *MockWorker) Stop() { m.Called() }

func (m *MockWorker) EnqueueJob(evalID uuid.UUID) { m.Called(evalID) }

func (m *MockWorker) ProcessJob(ctx context.Context, evalID uuid.UUID) error {
	return m.Called(ctx, evalID).Error(0)
}

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, content []byte, format models.DocumentFormat, jd string) (*models.EvaluationRecord, error) {
	args := m.Called(ctx, content, format, jd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EvaluationRecord), args.Error(1)
}

func (m *MockPipeline) Analyze(ctx context.Context, content []byte, format models.DocumentFormat, jd string) *models.EvaluationRecord {
	return m.Called(ctx, content, format, jd).Get(0).(*models.EvaluationRecord)
}

// multipartRequest builds a POST with an optional cv file and text fields.
func multipartRequest(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("cv", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}
