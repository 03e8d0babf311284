package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizcraft/generation-service/internal/cache"
	"github.com/quizcraft/generation-service/internal/events"
	"github.com/quizcraft/generation-service/internal/generation"
	"github.com/quizcraft/generation-service/internal/llm"
	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
)

// Progress checkpoints reported while a job runs. Progress only ever moves
// forward.
const (
	progressQueued     = 10
	progressInvoked    = 30
	progressNormalized = 80
	progressDone       = 100
)

// generateTimeout bounds one background generation run end to end,
// including all provider retries.
const generateTimeout = 10 * time.Minute

type JobStatusResponse struct {
	JobID           uint             `json:"job_id"`
	TestID          uint             `json:"test_id"`
	Status          models.JobStatus `json:"status"`
	ProgressPercent int              `json:"progress_percent"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
}

type GenerationService interface {
	// StartJob creates a pending job for the test and launches generation in
	// the background. The returned job is in status pending.
	StartJob(ctx context.Context, test *models.Test, attachment []byte, mimeType string) (*models.GenerationJob, error)

	// Regenerate starts a fresh job for an existing test. The previous job
	// must be terminal; a running job is never resumed or restarted.
	Regenerate(ctx context.Context, testID uint) (*models.GenerationJob, error)

	GetJobStatus(ctx context.Context, jobID uint) (*JobStatusResponse, error)
	GetLatestJob(ctx context.Context, testID uint) (*JobStatusResponse, error)
}

type generationService struct {
	repo         repositories.Repository
	orchestrator *generation.Orchestrator
	prompts      *generation.PromptBuilder
	registry     *generation.SchemaRegistry
	publisher    events.EventPublisher
	cache        cache.CacheService
	logger       *slog.Logger
	maxTokens    int
	temperature  float64
}

func NewGenerationService(
	repo repositories.Repository,
	orchestrator *generation.Orchestrator,
	registry *generation.SchemaRegistry,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	llmCfg llm.Config,
) GenerationService {
	return &generationService{
		repo:         repo,
		orchestrator: orchestrator,
		prompts:      generation.NewPromptBuilder(),
		registry:     registry,
		publisher:    publisher,
		cache:        cacheService,
		logger:       logger,
		maxTokens:    llmCfg.MaxTokens,
		temperature:  llmCfg.Temperature,
	}
}

// ===== JOB LIFECYCLE =====

func (s *generationService) StartJob(ctx context.Context, test *models.Test, attachment []byte, mimeType string) (*models.GenerationJob, error) {
	job := &models.GenerationJob{
		TestID: test.ID,
		Status: models.JobPending,
	}
	if err := s.repo.Job().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create generation job: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventGenerationStarted, events.GenerationStartedEvent{
		JobID:  job.ID,
		TestID: test.ID,
	}))

	go s.run(job.ID, test, attachment, mimeType)
	return job, nil
}

func (s *generationService) Regenerate(ctx context.Context, testID uint) (*models.GenerationJob, error) {
	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	latest, err := s.repo.Job().GetLatestByTest(ctx, testID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get latest job: %w", err)
	}
	if latest != nil && !latest.IsTerminal() {
		return nil, ErrJobAlreadyRunning
	}

	// A regeneration has no access to the original upload. PDF-sourced tests
	// keep the extracted text in source_content, so the attachment is not
	// needed again.
	return s.StartJob(ctx, test, nil, "")
}

func (s *generationService) GetJobStatus(ctx context.Context, jobID uint) (*JobStatusResponse, error) {
	var cached JobStatusResponse
	if err := s.cache.Get(ctx, cache.JobStatusKey(jobID), &cached); err == nil {
		return &cached, nil
	}

	job, err := s.repo.Job().GetByID(ctx, jobID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get generation job: %w", err)
	}
	return s.cacheAndRespond(ctx, job), nil
}

func (s *generationService) GetLatestJob(ctx context.Context, testID uint) (*JobStatusResponse, error) {
	job, err := s.repo.Job().GetLatestByTest(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get latest job: %w", err)
	}
	return s.cacheAndRespond(ctx, job), nil
}

func (s *generationService) cacheAndRespond(ctx context.Context, job *models.GenerationJob) *JobStatusResponse {
	resp := &JobStatusResponse{
		JobID:           job.ID,
		TestID:          job.TestID,
		Status:          job.Status,
		ProgressPercent: job.ProgressPercent,
		ErrorMessage:    job.ErrorMessage,
	}

	// Terminal statuses are immutable and can be cached longer than the
	// short poll window used while the job runs.
	ttl := 2 * time.Second
	if job.IsTerminal() {
		ttl = time.Hour
	}
	if err := s.cache.Set(ctx, cache.JobStatusKey(job.ID), resp, ttl); err != nil {
		s.logger.Warn("Failed to cache job status", "job_id", job.ID, "error", err)
	}
	return resp
}

// ===== BACKGROUND GENERATION =====

// run drives one job from pending to a terminal state. It is detached from
// the request context on purpose: a client disconnect must not abort
// generation.
func (s *generationService) run(jobID uint, test *models.Test, attachment []byte, mimeType string) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	logger := s.logger.With("job_id", jobID, "test_id", test.ID)
	logger.Info("Generation started", "category", test.Category, "requested_count", test.RequestedCount)

	s.setProgress(ctx, jobID, models.JobGenerating, progressQueued)

	params := s.buildParams(test, attachment, mimeType)
	s.setProgress(ctx, jobID, models.JobGenerating, progressInvoked)

	result, err := s.orchestrator.Generate(ctx, params)
	if err != nil {
		s.fail(ctx, jobID, test.ID, err, logger)
		return
	}
	s.setProgress(ctx, jobID, models.JobGenerating, progressNormalized)

	if err := s.repo.Test().ReplaceQuestions(ctx, test.ID, result.Questions, result.DiagnosticCriteria); err != nil {
		s.fail(ctx, jobID, test.ID, fmt.Errorf("failed to store questions: %w", err), logger)
		return
	}
	if err := s.cache.Delete(ctx, cache.TestKey(test.ID)); err != nil {
		logger.Warn("Failed to invalidate test cache", "error", err)
	}

	if err := s.repo.Job().UpdateStatus(ctx, jobID, models.JobReady, progressDone, nil); err != nil {
		logger.Error("Failed to mark job ready", "error", err)
		return
	}
	s.invalidateJobStatus(ctx, jobID)

	logger.Info("Generation completed",
		"question_count", len(result.Questions),
		"provider", result.Provider,
		"model", result.Model)

	s.publishEvent(ctx, events.NewEvent(events.EventGenerationCompleted, events.GenerationCompletedEvent{
		JobID:         jobID,
		TestID:        test.ID,
		QuestionCount: len(result.Questions),
		Provider:      result.Provider,
	}))
}

func (s *generationService) buildParams(test *models.Test, attachment []byte, mimeType string) generation.GenerateParams {
	in := generation.PromptInput{
		Category:         test.Category,
		SourceKind:       test.SourceKind,
		Title:            test.Title,
		RequestedCount:   test.RequestedCount,
		Language:         test.Language,
		Difficulty:       test.Difficulty,
		DistributionMode: test.DistributionMode,
		ManualBreakdown:  test.ManualBreakdown.Data(),
	}
	if test.Topic != nil {
		in.Topic = *test.Topic
	}
	if test.SourceContent != nil {
		in.SourceContent = *test.SourceContent
	}

	system, prompt := s.prompts.Build(in)

	params := generation.GenerateParams{
		System:         system,
		Prompt:         prompt,
		Schema:         s.registry.Get(test.Category, test.DistributionMode),
		RequestedCount: test.RequestedCount,
		Category:       test.Category,
		MaxTokens:      s.maxTokens,
		Temperature:    s.temperature,
	}
	if len(attachment) > 0 {
		params.Attachment = &llm.Attachment{MIMEType: mimeType, Data: attachment}
	}
	return params
}

func (s *generationService) setProgress(ctx context.Context, jobID uint, status models.JobStatus, progress int) {
	if err := s.repo.Job().UpdateStatus(ctx, jobID, status, progress, nil); err != nil {
		s.logger.Warn("Failed to update job progress", "job_id", jobID, "progress", progress, "error", err)
		return
	}
	s.invalidateJobStatus(ctx, jobID)
}

func (s *generationService) fail(ctx context.Context, jobID, testID uint, cause error, logger *slog.Logger) {
	logger.Error("Generation failed", "error", cause)

	msg := cause.Error()
	if err := s.repo.Job().UpdateStatus(ctx, jobID, models.JobFailed, -1, &msg); err != nil {
		logger.Error("Failed to mark job failed", "error", err)
	}
	s.invalidateJobStatus(ctx, jobID)

	s.publishEvent(ctx, events.NewEvent(events.EventGenerationFailed, events.GenerationFailedEvent{
		JobID:        jobID,
		TestID:       testID,
		ErrorMessage: msg,
	}))
}

func (s *generationService) invalidateJobStatus(ctx context.Context, jobID uint) {
	if err := s.cache.Delete(ctx, cache.JobStatusKey(jobID)); err != nil {
		s.logger.Warn("Failed to invalidate job status cache", "job_id", jobID, "error", err)
	}
}

func (s *generationService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
