package models

type CandidateSubmissionResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

type CandidateResultResponse struct {
	ID           string            `json:"id"`
	JobTitle     string            `json:"job_title,omitempty"`
	Status       string            `json:"status"`
	Result       *EvaluationRecord `json:"result,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
}
