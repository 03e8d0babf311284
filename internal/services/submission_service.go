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
	"github.com/quizcraft/generation-service/internal/scoring"
	"github.com/quizcraft/generation-service/internal/utils"
)

// ===== REQUEST / RESPONSE TYPES =====

type SubmitRequest struct {
	TestID  uint            `json:"test_id" validate:"required"`
	Answers []models.Answer `json:"answers" validate:"required,min=1"`
}

type SubmissionListResponse struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// ===== SERVICE INTERFACE =====

type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest, userID string) (*models.Submission, error)
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	ListByTest(ctx context.Context, testID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error)
}

type submissionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSubmissionService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== OPERATIONS =====

// Submit scores every answer immediately. Objective questions are final on
// the spot; essays are marked as requiring manual grading, which holds the
// aggregate score back until every essay is graded.
func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest, userID string) (*models.Submission, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	questions := test.Questions.Data()
	if len(questions) == 0 {
		return nil, ErrTestNotReady
	}
	if test.Category == models.CategoryDiagnostic {
		return nil, ErrSubmissionNotAllowed
	}

	if test.MaxAttempts > 0 {
		count, err := s.repo.Submission().CountByTestAndUser(ctx, req.TestID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count attempts: %w", err)
		}
		if count >= int64(test.MaxAttempts) {
			return nil, ErrAttemptLimitExceeded
		}
	}

	if err := s.validateAnswers(test, req.Answers); err != nil {
		return nil, err
	}

	results := make([]models.QuestionResult, 0, len(questions))
	for _, q := range questions {
		answer := answerFor(req.Answers, q.QuestionID)
		results = append(results, scoring.Score(q, answer))
	}

	submission := &models.Submission{
		TestID:      req.TestID,
		UserID:      userID,
		Answers:     datatypes.NewJSONType(req.Answers),
		Results:     datatypes.NewJSONType(results),
		SubmittedAt: time.Now().UTC(),
	}

	essayCount := test.EssayQuestionCount()
	if essayCount > 0 {
		submission.GradingStatus = models.PendingGrading
	} else {
		submission.GradingStatus = models.AutoGraded
		applyAggregateScore(submission, test, results)
	}

	if err := s.repo.Submission().Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("Submission received",
		"submission_id", submission.ID,
		"test_id", req.TestID,
		"user_id", userID,
		"grading_status", submission.GradingStatus)

	s.publishEvent(ctx, events.NewEvent(events.EventSubmissionReceived, events.SubmissionReceivedEvent{
		SubmissionID:  submission.ID,
		TestID:        req.TestID,
		UserID:        userID,
		GradingStatus: submission.GradingStatus,
	}))
	if essayCount > 0 {
		s.publishEvent(ctx, events.NewEvent(events.EventManualGradingRequired, events.ManualGradingRequiredEvent{
			SubmissionID: submission.ID,
			TestID:       req.TestID,
			EssayCount:   essayCount,
		}))
	}

	return submission, nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) ListByTest(ctx context.Context, testID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	submissions, total, err := s.repo.Submission().ListByTest(ctx, testID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &SubmissionListResponse{
		Submissions: submissions,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// ===== HELPERS =====

func (s *submissionService) validateAnswers(test *models.Test, answers []models.Answer) error {
	var errs ValidationErrors

	seen := make(map[string]bool, len(answers))
	for i, a := range answers {
		if a.QuestionID == "" {
			errs = append(errs, *NewValidationError(fmt.Sprintf("answers[%d].question_id", i), "is required", nil))
			continue
		}
		if seen[a.QuestionID] {
			errs = append(errs, *NewValidationError(fmt.Sprintf("answers[%d].question_id", i), "duplicate answer for question", a.QuestionID))
			continue
		}
		seen[a.QuestionID] = true

		if test.QuestionByID(a.QuestionID) == nil {
			errs = append(errs, *NewValidationError(fmt.Sprintf("answers[%d].question_id", i), "question does not exist in this test", a.QuestionID))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// answerFor returns the submitted answer for a question, or an empty answer
// when the learner skipped it. Skipped questions score zero, they are never
// an error.
func answerFor(answers []models.Answer, questionID string) models.Answer {
	for _, a := range answers {
		if a.QuestionID == questionID {
			return a
		}
	}
	return models.Answer{QuestionID: questionID}
}

// applyAggregateScore computes the derived score fields from the per
// question results. Called only when no grading is outstanding, so every
// result carries its final points.
func applyAggregateScore(submission *models.Submission, test *models.Test, results []models.QuestionResult) {
	var awarded float64
	correct := 0

	for _, r := range results {
		if r.RequiresGrading {
			continue
		}
		awarded += r.PointsAwarded
		if r.IsCorrect {
			correct++
		}
	}

	maxTotal := test.MaxTotalPoints()
	submission.CorrectCount = correct
	if maxTotal > 0 {
		submission.ScorePercentage = utils.Round2(awarded / float64(maxTotal) * 100)
		submission.ScoreOutOf10 = utils.Round2(awarded / float64(maxTotal) * 10)
	}
	submission.IsPassed = submission.ScorePercentage >= float64(test.PassingScore)
}

func (s *submissionService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
