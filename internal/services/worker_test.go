package services

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/models"
)

// MockEvaluationRepository is a mock implementation of repositories.EvaluationRepository
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CandidateEvaluation), args.Error(1)
}

// MockStorageService is a mock implementation of StorageService
type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) SaveFile(file *multipart.FileHeader, fileType string) (string, string, error) {
	args := m.Called(file, fileType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorageService) ReadFile(filePath string) ([]byte, error) {
	args := m.Called(filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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

// recordingEvaluator returns a fixed record and remembers the submissions.
type recordingEvaluator struct {
	record *models.EvaluationRecord
	subs   chan Submission
}

func (r *recordingEvaluator) Evaluate(ctx context.Context, sub Submission) *models.EvaluationRecord {
	if r.subs != nil {
		r.subs <- sub
	}
	return r.record
}

func queuedEvaluation(id uuid.UUID) *models.CandidateEvaluation {
	return &models.CandidateEvaluation{
		ID:             id,
		JobDescription: sampleJD,
		Status:         models.StatusQueued,
		Document: models.Document{
			OriginalFileName: "jane.pdf",
			Format:           models.FormatPDF,
			FilePath:         "/uploads/cv_1.pdf",
		},
	}
}

func TestWorker_ProcessJob(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	storage := new(MockStorageService)
	evaluator := &recordingEvaluator{record: eligibleRecord(), subs: make(chan Submission, 1)}

	repo.On("FindByID", id).Return(queuedEvaluation(id), nil)
	repo.On("ClaimJob", id).Return(true, nil)
	repo.On("UpdateResult", id, evaluator.record).Return(nil)
	storage.On("ReadFile", "/uploads/cv_1.pdf").Return([]byte("%PDF"), nil)

	w := NewWorker(repo, storage, evaluator, 1, time.Minute, zap.NewNop())
	require.NoError(t, w.ProcessJob(context.Background(), id))

	sub := <-evaluator.subs
	assert.Equal(t, []byte("%PDF"), sub.Content)
	assert.Equal(t, models.FormatPDF, sub.Format)
	assert.Equal(t, "jane.pdf", sub.Filename)
	assert.Equal(t, sampleJD, sub.JobDescription)

	repo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestWorker_ProcessJobUnreadableFile(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	storage := new(MockStorageService)

	repo.On("FindByID", id).Return(queuedEvaluation(id), nil)
	repo.On("ClaimJob", id).Return(true, nil)
	repo.On("UpdateResult", id, mock.MatchedBy(func(rec *models.EvaluationRecord) bool {
		return rec.Eligibility == models.EligibilityUnknown && rec.Reason != ""
	})).Return(nil)
	storage.On("ReadFile", mock.Anything).Return(nil, errors.New("no such file"))

	w := NewWorker(repo, storage, &recordingEvaluator{record: eligibleRecord()}, 1, time.Minute, zap.NewNop())
	require.NoError(t, w.ProcessJob(context.Background(), id))

	repo.AssertExpectations(t)
}

func TestWorker_ProcessJobSkipsFinishedJobs(t *testing.T) {
	id := uuid.New()
	eval := queuedEvaluation(id)
	eval.Status = models.StatusEvaluated

	repo := new(MockEvaluationRepository)
	repo.On("FindByID", id).Return(eval, nil)

	w := NewWorker(repo, new(MockStorageService), &recordingEvaluator{}, 1, time.Minute, zap.NewNop())
	require.NoError(t, w.ProcessJob(context.Background(), id))

	repo.AssertNotCalled(t, "ClaimJob", mock.Anything)
}

func TestWorker_ProcessJobSkipsLostClaim(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	storage := new(MockStorageService)
	evaluator := &recordingEvaluator{record: eligibleRecord(), subs: make(chan Submission, 1)}

	repo.On("FindByID", id).Return(queuedEvaluation(id), nil)
	repo.On("ClaimJob", id).Return(false, nil)

	w := NewWorker(repo, storage, evaluator, 1, time.Minute, zap.NewNop())
	require.NoError(t, w.ProcessJob(context.Background(), id))

	assert.Empty(t, evaluator.subs)
	repo.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything)
	storage.AssertNotCalled(t, "ReadFile", mock.Anything)
}

func TestWorker_ProcessJobClaimError(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	repo.On("FindByID", id).Return(queuedEvaluation(id), nil)
	repo.On("ClaimJob", id).Return(false, errors.New("connection reset"))

	w := NewWorker(repo, new(MockStorageService), &recordingEvaluator{}, 1, time.Minute, zap.NewNop())
	assert.Error(t, w.ProcessJob(context.Background(), id))
	repo.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything)
}

func TestWorker_ProcessJobNotFound(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	repo.On("FindByID", id).Return(nil, errors.New("record not found"))

	w := NewWorker(repo, new(MockStorageService), &recordingEvaluator{}, 1, time.Minute, zap.NewNop())
	assert.Error(t, w.ProcessJob(context.Background(), id))
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	storage := new(MockStorageService)
	evaluator := &recordingEvaluator{record: eligibleRecord(), subs: make(chan Submission, 1)}

	repo.On("FindByID", id).Return(queuedEvaluation(id), nil)
	repo.On("ClaimJob", id).Return(true, nil)
	repo.On("UpdateResult", id, mock.Anything).Return(nil)
	repo.On("FindPendingJobs", mock.Anything).Return([]models.CandidateEvaluation{}, nil).Maybe()
	storage.On("ReadFile", mock.Anything).Return([]byte("%PDF"), nil)

	w := NewWorker(repo, storage, evaluator, 2, time.Hour, zap.NewNop())
	w.Start(context.Background())
	w.EnqueueJob(id)

	select {
	case sub := <-evaluator.subs:
		assert.Equal(t, sampleJD, sub.JobDescription)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	w.Stop()
	w.Stop()
}

func TestWorker_PollsPendingJobs(t *testing.T) {
	id := uuid.New()
	repo := new(MockEvaluationRepository)
	storage := new(MockStorageService)
	evaluator := &recordingEvaluator{record: eligibleRecord(), subs: make(chan Submission, 4)}

	eval := queuedEvaluation(id)
	repo.On("FindPendingJobs", pendingBatchSize).Return([]models.CandidateEvaluation{*eval}, nil).Once()
	repo.On("FindPendingJobs", pendingBatchSize).Return([]models.CandidateEvaluation{}, nil)
	repo.On("FindByID", id).Return(eval, nil).Once()
	repo.On("ClaimJob", id).Return(true, nil).Once()
	repo.On("UpdateResult", id, mock.Anything).Return(nil).Once()
	storage.On("ReadFile", mock.Anything).Return([]byte("%PDF"), nil)

	w := NewWorker(repo, storage, evaluator, 1, 20*time.Millisecond, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	select {
	case <-evaluator.subs:
	case <-time.After(2 * time.Second):
		t.Fatal("pending job was not picked up")
	}
}
