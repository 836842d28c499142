package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/models"
	"alfredoptarigan/cv-align/internal/repositories"
	"alfredoptarigan/cv-align/internal/services"
)

// CandidateHandler accepts candidate submissions and queues them for evaluation.
type CandidateHandler struct {
	docRepo        repositories.DocumentRepository
	evalRepo       repositories.EvaluationRepository
	storageService services.StorageService
	worker         services.Worker
	maxFileSize    int64
	logger         *zap.Logger
}

func NewCandidateHandler(
	docRepo repositories.DocumentRepository,
	evalRepo repositories.EvaluationRepository,
	storageService services.StorageService,
	worker services.Worker,
	maxFileSize int64,
	logger *zap.Logger,
) *CandidateHandler {
	return &CandidateHandler{
		docRepo:        docRepo,
		evalRepo:       evalRepo,
		storageService: storageService,
		worker:         worker,
		maxFileSize:    maxFileSize,
		logger:         logger.With(zap.String("handler", "candidates")),
	}
}

// HandleSubmit handles POST /api/v1/candidates
func (h *CandidateHandler) HandleSubmit(c *fiber.Ctx) error {
	cvFile, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cv file is required",
		})
	}

	jobDescription := strings.TrimSpace(c.FormValue("job_description"))
	if jobDescription == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description is required",
		})
	}

	if cvFile.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("CV file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	filename, filePath, err := h.storageService.SaveFile(cvFile, "cv")
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "only PDF files are allowed",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save CV file: %v", err),
		})
	}

	doc := models.Document{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFileName: cvFile.Filename,
		Format:           models.FormatFromFilename(cvFile.Filename),
		FilePath:         filePath,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.docRepo.Create(&doc); err != nil {
		// Cleanup uploaded file if database insert fails
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save CV document record",
		})
	}

	evaluation := &models.CandidateEvaluation{
		ID:             uuid.New(),
		JobTitle:       strings.TrimSpace(c.FormValue("job_title")),
		JobDescription: jobDescription,
		DocumentID:     doc.ID,
		Status:         models.StatusQueued,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := h.evalRepo.Create(evaluation); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create evaluation job",
		})
	}

	h.worker.EnqueueJob(evaluation.ID)
	h.logger.Info("candidate queued",
		zap.Stringer("evaluation_id", evaluation.ID),
		zap.String("job_title", evaluation.JobTitle),
	)

	return c.Status(fiber.StatusAccepted).JSON(models.CandidateSubmissionResponse{
		ID:         evaluation.ID.String(),
		DocumentID: doc.ID.String(),
		Status:     string(models.StatusQueued),
	})
}
