package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/quizcraft/generation-service/internal/models"
)

// EventType identifies the lifecycle events this service emits.
type EventType string

const (
	// Generation job lifecycle
	EventGenerationStarted   EventType = "generation.started"
	EventGenerationCompleted EventType = "generation.completed"
	EventGenerationFailed    EventType = "generation.failed"

	// Submission and grading lifecycle
	EventSubmissionReceived     EventType = "submission.received"
	EventManualGradingRequired  EventType = "grading.manual_required"
	EventSubmissionFullyGraded  EventType = "submission.fully_graded"
)

// Event is the base structure for every published event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type GenerationStartedEvent struct {
	JobID  uint `json:"job_id"`
	TestID uint `json:"test_id"`
}

type GenerationCompletedEvent struct {
	JobID         uint   `json:"job_id"`
	TestID        uint   `json:"test_id"`
	QuestionCount int    `json:"question_count"`
	Provider      string `json:"provider"`
}

type GenerationFailedEvent struct {
	JobID        uint   `json:"job_id"`
	TestID       uint   `json:"test_id"`
	ErrorMessage string `json:"error_message"`
}

type SubmissionReceivedEvent struct {
	SubmissionID  uint                 `json:"submission_id"`
	TestID        uint                 `json:"test_id"`
	UserID        string               `json:"user_id"`
	GradingStatus models.GradingStatus `json:"grading_status"`
}

type ManualGradingRequiredEvent struct {
	SubmissionID uint `json:"submission_id"`
	TestID       uint `json:"test_id"`
	EssayCount   int  `json:"essay_count"`
}

type SubmissionFullyGradedEvent struct {
	SubmissionID    uint    `json:"submission_id"`
	TestID          uint    `json:"test_id"`
	UserID          string  `json:"user_id"`
	ScorePercentage float64 `json:"score_percentage"`
	IsPassed        bool    `json:"is_passed"`
}

// NewEvent wraps a payload in the base envelope.
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "generation-service",
		Version:   "1.0",
		Data:      data,
	}
}
