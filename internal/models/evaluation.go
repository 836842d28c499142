package models

import (
	"time"

	"github.com/google/uuid"
)

type Eligibility string

const (
	EligibilityEligible    Eligibility = "eligible"
	EligibilityNotEligible Eligibility = "not_eligible"
	EligibilityError       Eligibility = "error"
	EligibilityUnknown     Eligibility = "unknown"
)

const NotSpecified = "Not specified"

// EvaluationRecord is the structured outcome of one résumé versus job
// description assessment. The JSON keys are the wire contract shared with
// the remote evaluator.
type EvaluationRecord struct {
	CandidateName    string      `json:"candidate_name"`
	Eligibility      Eligibility `json:"eligibility"`
	Reason           string      `json:"reason,omitempty"`
	ATSScore         int         `json:"ats_score"`
	Degree           string      `json:"degree,omitempty"`
	Course           string      `json:"course,omitempty"`
	CGPA             string      `json:"cgpa,omitempty"`
	Strengths        []string    `json:"strengths"`
	Weaknesses       []string    `json:"weaknesses"`
	Feedback         string      `json:"feedback,omitempty"`
	DetailedFeedback string      `json:"detailed_feedback,omitempty"`
}

// Normalize enforces the eligibility invariant: only eligible and unknown
// records carry a score, strengths and weaknesses.
func (r *EvaluationRecord) Normalize() {
	if r.Eligibility == "" {
		r.Eligibility = EligibilityUnknown
	}
	switch r.Eligibility {
	case EligibilityNotEligible, EligibilityError:
		r.ATSScore = 0
		r.Strengths = []string{}
		r.Weaknesses = []string{}
	default:
		if r.Eligibility == EligibilityEligible {
			r.Reason = ""
		}
		if r.ATSScore < 0 {
			r.ATSScore = 0
		}
		if r.ATSScore > 100 {
			r.ATSScore = 100
		}
	}
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Weaknesses == nil {
		r.Weaknesses = []string{}
	}
}

// ToMap returns the record keyed by its candidate_evaluations column names.
func (r *EvaluationRecord) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"candidate_name":    r.CandidateName,
		"eligibility":       string(r.Eligibility),
		"reason":            r.Reason,
		"ats_score":         r.ATSScore,
		"degree":            r.Degree,
		"course":            r.Course,
		"cgpa":              r.CGPA,
		"strengths":         append([]string{}, r.Strengths...),
		"weaknesses":        append([]string{}, r.Weaknesses...),
		"feedback":          r.Feedback,
		"detailed_feedback": r.DetailedFeedback,
	}
}

type CandidateStatus string

const (
	StatusQueued     CandidateStatus = "queued"
	StatusProcessing CandidateStatus = "processing"
	StatusEvaluated  CandidateStatus = "evaluated"
	StatusRejected   CandidateStatus = "rejected"
	StatusFailed     CandidateStatus = "failed"
)

// CandidateEvaluation is the persisted request and result of one candidate submission.
type CandidateEvaluation struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobTitle       string          `gorm:"type:text" json:"job_title"`
	JobDescription string          `gorm:"type:text;not null" json:"job_description"`
	DocumentID     uuid.UUID       `gorm:"type:uuid;not null" json:"document_id"`
	Status         CandidateStatus `gorm:"not null;default:'queued'" json:"status"`

	CandidateName    string      `gorm:"type:text" json:"candidate_name,omitempty"`
	Eligibility      Eligibility `gorm:"type:text" json:"eligibility,omitempty"`
	Reason           string      `gorm:"type:text" json:"reason,omitempty"`
	ATSScore         int         `json:"ats_score"`
	Degree           string      `gorm:"type:text" json:"degree,omitempty"`
	Course           string      `gorm:"type:text" json:"course,omitempty"`
	CGPA             string      `gorm:"type:text" json:"cgpa,omitempty"`
	Strengths        []string    `gorm:"serializer:json" json:"strengths,omitempty"`
	Weaknesses       []string    `gorm:"serializer:json" json:"weaknesses,omitempty"`
	Feedback         string      `gorm:"type:text" json:"feedback,omitempty"`
	DetailedFeedback string      `gorm:"type:text" json:"detailed_feedback,omitempty"`
	ErrorMessage     *string     `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Document Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (CandidateEvaluation) TableName() string {
	return "candidate_evaluations"
}

// Record rebuilds the evaluation record stored on the row.
func (c *CandidateEvaluation) Record() *EvaluationRecord {
	rec := &EvaluationRecord{
		CandidateName:    c.CandidateName,
		Eligibility:      c.Eligibility,
		Reason:           c.Reason,
		ATSScore:         c.ATSScore,
		Degree:           c.Degree,
		Course:           c.Course,
		CGPA:             c.CGPA,
		Strengths:        c.Strengths,
		Weaknesses:       c.Weaknesses,
		Feedback:         c.Feedback,
		DetailedFeedback: c.DetailedFeedback,
	}
	rec.Normalize()
	return rec
}

// StatusFor maps a finished record to the candidate status stored with it.
func StatusFor(rec *EvaluationRecord) CandidateStatus {
	switch rec.Eligibility {
	case EligibilityNotEligible:
		return StatusRejected
	case EligibilityEligible:
		return StatusEvaluated
	default:
		return StatusFailed
	}
}
