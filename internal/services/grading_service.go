package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/quizcraft/generation-service/internal/events"
	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
	"github.com/quizcraft/generation-service/internal/utils"
)

// ===== REQUEST TYPES =====

type GradeEssayRequest struct {
	QuestionID    string  `json:"question_id" validate:"required"`
	PointsAwarded float64 `json:"points_awarded" validate:"min=0"`
	Feedback      string  `json:"feedback" validate:"max=2000"`
}

// ===== SERVICE INTERFACE =====

type GradingService interface {
	// GradeEssay records a grade for one essay question. Re-grading the same
	// question replaces the previous grade; the grading status never moves
	// backwards.
	GradeEssay(ctx context.Context, submissionID uint, req *GradeEssayRequest, graderID string) (*models.Submission, error)

	ListPending(ctx context.Context, testID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error)
}

type gradingService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewGradingService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) GradingService {
	return &gradingService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== OPERATIONS =====

func (s *gradingService) GradeEssay(ctx context.Context, submissionID uint, req *GradeEssayRequest, graderID string) (*models.Submission, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if submission.GradingStatus == models.AutoGraded {
		return nil, &GradingStateError{
			SubmissionID: submissionID,
			Current:      submission.GradingStatus,
			Operation:    "grade",
			Message:      "submission has no essay questions",
		}
	}

	test, err := s.repo.Test().GetByID(ctx, submission.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	question := test.QuestionByID(req.QuestionID)
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	if question.Type != models.Essay {
		return nil, ErrGradingNotRequired
	}
	if req.PointsAwarded < 0 || req.PointsAwarded > float64(question.MaxPoints) {
		return nil, fmt.Errorf("%w: %.2f not in [0, %d]", ErrGradingInvalidScore, req.PointsAwarded, question.MaxPoints)
	}

	grade := models.EssayGrade{
		QuestionID:    req.QuestionID,
		PointsAwarded: utils.Round2(req.PointsAwarded),
		MaxPoints:     question.MaxPoints,
		Feedback:      req.Feedback,
		GraderID:      graderID,
		GradedAt:      time.Now().UTC(),
	}

	grades := upsertGrade(submission.EssayGrades.Data(), grade)
	results := applyGradeToResults(submission.Results.Data(), grade)

	submission.EssayGrades = datatypes.NewJSONType(grades)
	submission.Results = datatypes.NewJSONType(results)
	submission.GradingStatus = nextGradingStatus(results)

	if submission.GradingStatus == models.FullyGraded {
		applyAggregateScore(submission, test, results)
	}

	if err := s.repo.Submission().Update(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}

	s.logger.Info("Essay graded",
		"submission_id", submissionID,
		"question_id", req.QuestionID,
		"points", grade.PointsAwarded,
		"grader_id", graderID,
		"grading_status", submission.GradingStatus)

	if submission.GradingStatus == models.FullyGraded {
		s.publishEvent(ctx, events.NewEvent(events.EventSubmissionFullyGraded, events.SubmissionFullyGradedEvent{
			SubmissionID:    submission.ID,
			TestID:          submission.TestID,
			UserID:          submission.UserID,
			ScorePercentage: submission.ScorePercentage,
			IsPassed:        submission.IsPassed,
		}))
	}

	return submission, nil
}

func (s *gradingService) ListPending(ctx context.Context, testID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error) {
	pending := models.PendingGrading
	if filters.GradingStatus == nil {
		filters.GradingStatus = &pending
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	submissions, total, err := s.repo.Submission().ListByTest(ctx, testID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}

	return &SubmissionListResponse{
		Submissions: submissions,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// ===== HELPERS =====

func upsertGrade(grades []models.EssayGrade, grade models.EssayGrade) []models.EssayGrade {
	for i := range grades {
		if grades[i].QuestionID == grade.QuestionID {
			grades[i] = grade
			return grades
		}
	}
	return append(grades, grade)
}

// applyGradeToResults folds a grade into the stored per-question results so
// the results array stays the single source of truth for scoring.
func applyGradeToResults(results []models.QuestionResult, grade models.EssayGrade) []models.QuestionResult {
	for i := range results {
		if results[i].QuestionID == grade.QuestionID {
			results[i].PointsAwarded = grade.PointsAwarded
			results[i].IsCorrect = grade.MaxPoints > 0 && grade.PointsAwarded == float64(grade.MaxPoints)
			results[i].RequiresGrading = false
			break
		}
	}
	return results
}

// nextGradingStatus derives the status from how many essays still await a
// grade. Grading only ever advances: pending -> partially -> fully.
func nextGradingStatus(results []models.QuestionResult) models.GradingStatus {
	remaining := 0
	for _, r := range results {
		if r.RequiresGrading {
			remaining++
		}
	}
	if remaining == 0 {
		return models.FullyGraded
	}
	return models.PartiallyGraded
}

func (s *gradingService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
