package domain

import "github.com/go-playground/validator/v10"

// validate is the package-level validator instance used for struct validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// StartRunRequest is the input accepted by the workflow trigger surface to
// start one scoring run.
type StartRunRequest struct {
	CaseID         string      `json:"caseId"         validate:"required"`
	Email          string      `json:"email"          validate:"omitempty,email"`
	DocumentRef    DocumentRef `json:"documentRef"    validate:"required"`
	JurisdictionID string      `json:"jurisdictionId"`
}

// Validate checks the request against its contract.
func (r *StartRunRequest) Validate() error { return validate.Struct(r) }

// RunResult is the exit shape surfaced to the caller of a completed run.
// Failed runs surface a Failure (error kind plus message) instead.
type RunResult struct {
	FinalScore float64 `json:"finalScore"`
	CaseType   string  `json:"caseType"`
}

// ScoreRecord is the minimal item shape persisted to score history after
// aggregation. Persistence is best-effort and never fails a completed run.
type ScoreRecord struct {
	CaseID     string  `json:"caseId"`
	Timestamp  string  `json:"timestamp"`
	CaseType   string  `json:"caseType"`
	Email      string  `json:"email,omitempty"`
	FinalScore float64 `json:"finalScore"`
}
