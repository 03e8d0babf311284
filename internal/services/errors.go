package services

import (
	"errors"
	"fmt"

	apperrors "github.com/quizcraft/generation-service/internal/errors"
	"github.com/quizcraft/generation-service/internal/models"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Test specific errors
	ErrTestNotFound        = errors.New("test not found")
	ErrTestNotReady        = errors.New("test questions are not ready yet")
	ErrTestHasNoQuestions  = errors.New("test has no questions")
	ErrQuestionNotFound    = errors.New("question not found in test")
	ErrQuestionInvalidType = errors.New("invalid question type")

	// Generation specific errors
	ErrJobNotFound       = errors.New("generation job not found")
	ErrJobAlreadyRunning = errors.New("a generation job is already running for this test")
	ErrJobNotTerminal    = errors.New("generation job is still in progress")

	// Submission specific errors
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrSubmissionNotAllowed = errors.New("submission not allowed for this test")
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded")

	// Grading specific errors
	ErrGradingNotRequired  = errors.New("question does not require manual grading")
	ErrGradingInvalidScore = errors.New("invalid score value")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// GradingStateError reports an operation attempted in a grading state that
// does not permit it.
type GradingStateError struct {
	SubmissionID uint                 `json:"submission_id"`
	Current      models.GradingStatus `json:"current_status"`
	Operation    string               `json:"operation"`
	Message      string               `json:"message"`
}

func (e *GradingStateError) Error() string {
	return fmt.Sprintf("cannot %s submission %d in status %s: %s",
		e.Operation, e.SubmissionID, e.Current, e.Message)
}

// JobStateError reports a generation job transition that the state machine
// forbids.
type JobStateError struct {
	JobID   uint             `json:"job_id"`
	Current models.JobStatus `json:"current_status"`
	Target  models.JobStatus `json:"target_status"`
}

func (e *JobStateError) Error() string {
	return fmt.Sprintf("invalid job %d transition: %s -> %s", e.JobID, e.Current, e.Target)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrQuestionNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrJobAlreadyRunning) ||
		errors.Is(err, ErrAttemptLimitExceeded) {
		return true
	}
	var gse *GradingStateError
	var jse *JobStateError
	return errors.As(err, &gse) || errors.As(err, &jse)
}
