package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/quizcraft/generation-service/internal/cache"
	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
	"github.com/quizcraft/generation-service/internal/utils"
	rawvalidator "github.com/quizcraft/generation-service/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type CreateTestRequest struct {
	Title            string                      `json:"title" validate:"required,min=1,max=200"`
	Language         string                      `json:"language" validate:"omitempty,min=2,max=10"`
	Category         models.TestCategory         `json:"category" validate:"required,oneof=academic diagnostic"`
	SourceKind       models.SourceKind           `json:"source_kind" validate:"required,oneof=document general_knowledge pdf_attachment"`
	Topic            *string                     `json:"topic" validate:"omitempty,max=500"`
	SourceContent    *string                     `json:"source_content"`
	RequestedCount   int                         `json:"requested_count" validate:"required,min=1,max=50"`
	DistributionMode models.DistributionMode     `json:"distribution_mode" validate:"omitempty,oneof=auto traditional manual"`
	ManualBreakdown  map[models.QuestionType]int `json:"manual_breakdown"`
	Difficulty       string                      `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	PassingScore     *int                        `json:"passing_score" validate:"omitempty,min=0,max=100"`
	MaxAttempts      int                         `json:"max_attempts" validate:"omitempty,min=0,max=10"`
	AnswerVisibility models.AnswerVisibility     `json:"answer_visibility" validate:"omitempty,oneof=after_submit after_grading never"`

	// PDF attachment bytes, populated from the multipart form, never from JSON.
	Attachment         []byte `json:"-"`
	AttachmentMIMEType string `json:"-"`
}

type UpdateQuestionsRequest struct {
	Questions          []rawvalidator.RawQuestion `json:"questions" validate:"required,min=1"`
	DiagnosticCriteria *models.DiagnosticCriteria `json:"diagnostic_criteria"`
}

type TestResponse struct {
	Test *models.Test          `json:"test"`
	Job  *models.GenerationJob `json:"generation_job,omitempty"`
}

type TestListResponse struct {
	Tests  []*models.Test `json:"tests"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ===== SERVICE INTERFACE =====

type TestService interface {
	Create(ctx context.Context, req *CreateTestRequest, creatorID string) (*TestResponse, error)
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	List(ctx context.Context, filters repositories.TestFilters) (*TestListResponse, error)
	UpdateQuestions(ctx context.Context, testID uint, req *UpdateQuestionsRequest) (*models.Test, error)
	Delete(ctx context.Context, id uint) error
}

type testService struct {
	repo       repositories.Repository
	generation GenerationService
	normalizer *rawvalidator.QuestionNormalizer
	cache      cache.CacheService
	logger     *slog.Logger
	validator  *utils.Validator
}

func NewTestService(
	repo repositories.Repository,
	generation GenerationService,
	normalizer *rawvalidator.QuestionNormalizer,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
) TestService {
	return &testService{
		repo:       repo,
		generation: generation,
		normalizer: normalizer,
		cache:      cacheService,
		logger:     logger,
		validator:  validator,
	}
}

// ===== OPERATIONS =====

func (s *testService) Create(ctx context.Context, req *CreateTestRequest, creatorID string) (*TestResponse, error) {
	s.logger.Info("Creating test", "creator_id", creatorID, "title", req.Title, "category", req.Category)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	test := &models.Test{
		Title:            req.Title,
		Language:         defaultString(req.Language, "en"),
		Category:         req.Category,
		SourceKind:       req.SourceKind,
		Topic:            req.Topic,
		SourceContent:    req.SourceContent,
		RequestedCount:   req.RequestedCount,
		DistributionMode: req.DistributionMode,
		Difficulty:       defaultString(req.Difficulty, "medium"),
		PassingScore:     50,
		MaxAttempts:      req.MaxAttempts,
		AnswerVisibility: req.AnswerVisibility,
		CreatedBy:        creatorID,
	}
	if req.PassingScore != nil {
		test.PassingScore = *req.PassingScore
	}
	if test.DistributionMode == "" {
		test.DistributionMode = models.DistributionAuto
	}
	if test.AnswerVisibility == "" {
		test.AnswerVisibility = models.VisibilityAfterSubmit
	}
	if req.ManualBreakdown != nil {
		test.ManualBreakdown = datatypes.NewJSONType(req.ManualBreakdown)
	}

	if err := s.repo.Test().Create(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	job, err := s.generation.StartJob(ctx, test, req.Attachment, req.AttachmentMIMEType)
	if err != nil {
		return nil, fmt.Errorf("failed to start generation job: %w", err)
	}

	s.logger.Info("Test created", "test_id", test.ID, "job_id", job.ID)
	return &TestResponse{Test: test, Job: job}, nil
}

func (s *testService) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	var cached models.Test
	if err := s.cache.Get(ctx, cache.TestKey(id), &cached); err == nil {
		return &cached, nil
	}

	test, err := s.repo.Test().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if err := s.cache.Set(ctx, cache.TestKey(id), test, 5*time.Minute); err != nil {
		s.logger.Warn("Failed to cache test", "test_id", id, "error", err)
	}
	return test, nil
}

func (s *testService) List(ctx context.Context, filters repositories.TestFilters) (*TestListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	tests, total, err := s.repo.Test().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	return &TestListResponse{
		Tests:  tests,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// UpdateQuestions replaces the whole question array. Edited questions go
// through the same normalization as generated ones, so a round trip of an
// untouched question is a no-op.
func (s *testService) UpdateQuestions(ctx context.Context, testID uint, req *UpdateQuestionsRequest) (*models.Test, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	questions, err := s.normalizer.NormalizeSet(req.Questions, test.Category)
	if err != nil {
		return nil, err
	}

	criteria := req.DiagnosticCriteria
	if test.Category == models.CategoryDiagnostic {
		if criteria == nil && test.DiagnosticCriteria != nil {
			c := test.DiagnosticCriteria.Data()
			criteria = &c
		}
		if err := validateDiagnosticCriteria(criteria); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Test().ReplaceQuestions(ctx, testID, questions, criteria); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to replace questions: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.TestKey(testID)); err != nil {
		s.logger.Warn("Failed to invalidate test cache", "test_id", testID, "error", err)
	}

	s.logger.Info("Test questions updated", "test_id", testID, "question_count", len(questions))
	return s.repo.Test().GetByID(ctx, testID)
}

func (s *testService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Test().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to delete test: %w", err)
	}
	if err := s.cache.Delete(ctx, cache.TestKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate test cache", "test_id", id, "error", err)
	}
	return nil
}

// ===== VALIDATION HELPERS =====

func (s *testService) validateCreateRequest(req *CreateTestRequest) error {
	var errs ValidationErrors

	switch req.SourceKind {
	case models.SourceDocument:
		if req.SourceContent == nil || *req.SourceContent == "" {
			errs = append(errs, *NewValidationError("source_content", "source content is required for document tests", nil))
		}
	case models.SourcePDFAttachment:
		if len(req.Attachment) == 0 {
			errs = append(errs, *NewValidationError("attachment", "a PDF attachment is required", nil))
		}
	case models.SourceGeneralKnowledge:
		if req.Topic == nil || *req.Topic == "" {
			errs = append(errs, *NewValidationError("topic", "topic is required for general knowledge tests", nil))
		}
	}

	if req.DistributionMode == models.DistributionManual {
		if len(req.ManualBreakdown) == 0 {
			errs = append(errs, *NewValidationError("manual_breakdown", "manual distribution requires a per-type breakdown", nil))
		} else {
			sum := 0
			for qt, n := range req.ManualBreakdown {
				if !models.IsValidQuestionType(qt) {
					errs = append(errs, *NewValidationError("manual_breakdown", fmt.Sprintf("unknown question type %q", qt), qt))
				}
				if n < 0 {
					errs = append(errs, *NewValidationError("manual_breakdown", fmt.Sprintf("negative count for %q", qt), n))
				}
				sum += n
			}
			if sum != req.RequestedCount {
				errs = append(errs, *NewValidationError("manual_breakdown",
					fmt.Sprintf("breakdown sums to %d but requested_count is %d", sum, req.RequestedCount), sum))
			}
		}
	}

	if req.Category == models.CategoryDiagnostic && req.DistributionMode == models.DistributionTraditional {
		errs = append(errs, *NewValidationError("distribution_mode", "diagnostic tests do not support traditional distribution", req.DistributionMode))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDiagnosticCriteria(criteria *models.DiagnosticCriteria) error {
	if criteria == nil {
		return NewValidationError("diagnostic_criteria", "diagnostic tests require result criteria", nil)
	}
	if n := len(criteria.ResultTypes); n < 3 || n > 5 {
		return NewValidationError("diagnostic_criteria.result_types",
			fmt.Sprintf("expected 3 to 5 result types, got %d", n), n)
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
