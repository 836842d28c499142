package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/models"
	"alfredoptarigan/cv-align/internal/repositories"
)

const (
	DefaultPollInterval = 10 * time.Second

	pendingBatchSize = 10
	jobQueueSize     = 100
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(evalID uuid.UUID)
	// ProcessJob evaluates one queued candidate and stores the outcome.
	ProcessJob(ctx context.Context, evalID uuid.UUID) error
}

type worker struct {
	evalRepo     repositories.EvaluationRepository
	storage      StorageService
	evaluator    EvaluatorService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger
}

func NewWorker(
	evalRepo repositories.EvaluationRepository,
	storage StorageService,
	evaluator EvaluatorService,
	concurrency int,
	pollInterval time.Duration,
	logger *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &worker{
		evalRepo:     evalRepo,
		storage:      storage,
		evaluator:    evaluator,
		jobQueue:     make(chan uuid.UUID, jobQueueSize),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		logger:       logger.With(zap.String("component", "worker")),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("stopping worker")
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(evalID uuid.UUID) {
	select {
	case w.jobQueue <- evalID:
		w.logger.Debug("job enqueued", zap.Stringer("evaluation_id", evalID))
	case <-w.stopChan:
		w.logger.Warn("worker stopped, cannot enqueue job", zap.Stringer("evaluation_id", evalID))
	}
}

// ProcessJob implements Worker.
func (w *worker) ProcessJob(ctx context.Context, evalID uuid.UUID) error {
	eval, err := w.evalRepo.FindByID(evalID)
	if err != nil {
		return err
	}
	if eval.Status != models.StatusQueued {
		w.logger.Debug("skipping job that is no longer queued",
			zap.Stringer("evaluation_id", evalID),
			zap.String("status", string(eval.Status)),
		)
		return nil
	}

	claimed, err := w.evalRepo.ClaimJob(evalID)
	if err != nil {
		return err
	}
	if !claimed {
		w.logger.Debug("skipping job claimed by another worker", zap.Stringer("evaluation_id", evalID))
		return nil
	}

	var record *models.EvaluationRecord
	content, err := w.storage.ReadFile(eval.Document.FilePath)
	if err != nil {
		record = TerminalRecord([]string{err.Error()})
	} else {
		record = w.evaluator.Evaluate(ctx, Submission{
			Content:        content,
			Format:         eval.Document.Format,
			Filename:       eval.Document.OriginalFileName,
			JobDescription: eval.JobDescription,
		})
	}

	if err := w.evalRepo.UpdateResult(evalID, record); err != nil {
		return fmt.Errorf("failed to store evaluation result: %w", err)
	}

	w.logger.Info("candidate evaluated",
		zap.Stringer("evaluation_id", evalID),
		zap.String("eligibility", string(record.Eligibility)),
		zap.Int("ats_score", record.ATSScore),
	)
	return nil
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker_id", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case evalID := <-w.jobQueue:
			if err := w.ProcessJob(ctx, evalID); err != nil {
				log.Error("failed to process job", zap.Stringer("evaluation_id", evalID), zap.Error(err))
			}
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.evalRepo.FindPendingJobs(pendingBatchSize)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.logger.Debug("found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
