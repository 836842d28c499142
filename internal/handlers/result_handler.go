package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-align/internal/models"
	"alfredoptarigan/cv-align/internal/repositories"
)

type ResultHandler struct {
	evalRepo repositories.EvaluationRepository
}

func NewResultHandler(evalRepo repositories.EvaluationRepository) *ResultHandler {
	return &ResultHandler{
		evalRepo: evalRepo,
	}
}

// HandleGetResult handles GET /api/v1/candidates/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate ID format",
		})
	}

	evaluation, err := h.evalRepo.FindByID(evalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Candidate not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load candidate",
		})
	}

	response := models.CandidateResultResponse{
		ID:       evaluation.ID.String(),
		JobTitle: evaluation.JobTitle,
		Status:   string(evaluation.Status),
	}

	switch evaluation.Status {
	case models.StatusEvaluated, models.StatusRejected:
		response.Result = evaluation.Record()
	case models.StatusFailed:
		response.ErrorMessage = evaluation.ErrorMessage
	}

	return c.JSON(response)
}
