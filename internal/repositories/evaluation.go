package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/cv-align/internal/models"
)

type EvaluationRepository interface {
	Create(eval *models.CandidateEvaluation) error
	FindByID(id uuid.UUID) (*models.CandidateEvaluation, error)
	ClaimJob(id uuid.UUID) (bool, error)
	UpdateResult(id uuid.UUID, record *models.EvaluationRecord) error
	FindPendingJobs(limit int) ([]models.CandidateEvaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(eval *models.CandidateEvaluation) error {
	if err := r.db.Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *evaluationRepository) FindByID(id uuid.UUID) (*models.CandidateEvaluation, error) {
	var eval models.CandidateEvaluation
	if err := r.db.Preload("Document").Where("id = ?", id).First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

// ClaimJob moves a queued evaluation to processing. It reports false when
// the row is missing or another worker already moved it out of queued.
func (r *evaluationRepository) ClaimJob(id uuid.UUID) (bool, error) {
	result := claimQuery(r.db, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim evaluation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func claimQuery(db *gorm.DB, id uuid.UUID) *gorm.DB {
	return db.Model(&models.CandidateEvaluation{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})
}

// UpdateResult stores the record and derives the candidate status from it.
func (r *evaluationRepository) UpdateResult(id uuid.UUID, record *models.EvaluationRecord) error {
	updates, err := resultColumns(record)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	result := resultQuery(r.db, id, updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}

	return nil
}

func resultQuery(db *gorm.DB, id uuid.UUID, updates map[string]interface{}) *gorm.DB {
	return db.Model(&models.CandidateEvaluation{}).
		Where("id = ?", id).
		Updates(updates)
}

// resultColumns maps the record onto candidate_evaluations columns. Map
// updates bypass gorm serializers, so list fields are JSON encoded here.
func resultColumns(record *models.EvaluationRecord) (map[string]interface{}, error) {
	updates := record.ToMap()
	for _, key := range []string{"strengths", "weaknesses"} {
		encoded, err := json.Marshal(updates[key])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		updates[key] = string(encoded)
	}

	status := models.StatusFor(record)
	updates["status"] = status
	updates["updated_at"] = time.Now()
	if status == models.StatusFailed {
		updates["error_message"] = record.Reason
	} else {
		updates["error_message"] = nil
	}

	return updates, nil
}

func (r *evaluationRepository) FindPendingJobs(limit int) ([]models.CandidateEvaluation, error) {
	var evals []models.CandidateEvaluation
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&evals).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return evals, nil
}
