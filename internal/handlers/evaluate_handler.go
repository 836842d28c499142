package handlers

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/models"
	"alfredoptarigan/cv-align/internal/services"
)

// EvaluateHandler serves the remote evaluation endpoint used by the
// remote tier of other deployments.
type EvaluateHandler struct {
	pipeline    services.Pipeline
	maxFileSize int64
	logger      *zap.Logger
}

func NewEvaluateHandler(pipeline services.Pipeline, maxFileSize int64, logger *zap.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		pipeline:    pipeline,
		maxFileSize: maxFileSize,
		logger:      logger.With(zap.String("handler", "evaluate")),
	}
}

// HandleEvaluate handles POST /api/evaluate/
func (h *EvaluateHandler) HandleEvaluate(c *fiber.Ctx) error {
	cvFile, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cv file is required",
		})
	}

	jd := strings.TrimSpace(c.FormValue("jd"))
	if jd == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "jd is required",
		})
	}

	if h.maxFileSize > 0 && cvFile.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("CV file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	src, err := cvFile.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open cv file",
		})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read cv file",
		})
	}

	format := models.FormatFromFilename(cvFile.Filename)
	record := h.pipeline.Analyze(c.UserContext(), content, format, jd)

	h.logger.Info("remote evaluation served",
		zap.String("filename", cvFile.Filename),
		zap.String("eligibility", string(record.Eligibility)),
	)

	return c.JSON(record)
}
