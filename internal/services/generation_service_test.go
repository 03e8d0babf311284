package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quizcraft/generation-service/internal/events"
	"github.com/quizcraft/generation-service/internal/generation"
	"github.com/quizcraft/generation-service/internal/llm"
	"github.com/quizcraft/generation-service/internal/models"
)

const eventWait = 3 * time.Second

func noDelayPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: 2,
		Backoff:     func(int) time.Duration { return 0 },
		Retryable:   llm.IsRetryable,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

func newGenerationServiceWith(repo *mockRepository, publisher events.EventPublisher, primary, fallback *llm.MockProvider) GenerationService {
	registry := generation.NewSchemaRegistry()
	orchestrator := generation.NewOrchestrator(primary, fallback, registry, noDelayPolicy(), testLogger())
	return NewGenerationService(repo, orchestrator, registry, publisher, newMemoryCache(), testLogger(),
		llm.Config{MaxTokens: 4096, Temperature: 0.7})
}

func modelResponse(n int) llm.MockResponse {
	questions := make([]string, n)
	for i := range questions {
		questions[i] = fmt.Sprintf(`{
			"question_text": "Generated question %d?",
			"question_type": "mcq",
			"max_points": 2,
			"options": [{"key": "A", "text": "yes"}, {"key": "B", "text": "no"}],
			"correct_answer_keys": ["A"]
		}`, i+1)
	}
	return llm.MockResponse{Content: json.RawMessage(`{"questions": [` + strings.Join(questions, ",") + `]}`)}
}

// waitForEvent blocks until the publisher has recorded the wanted event,
// then returns everything recorded so far.
func waitForEvent(t *testing.T, publisher *events.MockEventPublisher, wanted events.EventType) []events.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, e := range publisher.PublishedEvents() {
			if e.Type == wanted {
				return true
			}
		}
		return false
	}, eventWait, 10*time.Millisecond)
	return publisher.PublishedEvents()
}

func TestStartJobRunsGenerationToReady(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := newGenerationServiceWith(repo, publisher, llm.NewMockProvider(modelResponse(2)), llm.NewMockProvider())

	test := objectiveTest(1)

	repo.job.On("Create", mock.Anything, mock.AnythingOfType("*models.GenerationJob")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.GenerationJob).ID = 7
		}).Return(nil)
	repo.job.On("UpdateStatus", mock.Anything, uint(7), models.JobGenerating, mock.Anything, (*string)(nil)).Return(nil)
	repo.test.On("ReplaceQuestions", mock.Anything, uint(1), mock.MatchedBy(func(qs []models.Question) bool {
		return len(qs) == 2
	}), (*models.DiagnosticCriteria)(nil)).Return(nil)
	repo.job.On("UpdateStatus", mock.Anything, uint(7), models.JobReady, 100, (*string)(nil)).Return(nil)

	job, err := svc.StartJob(context.Background(), test, nil, "")

	require.NoError(t, err)
	assert.Equal(t, models.JobPending, job.Status)

	published := waitForEvent(t, publisher, events.EventGenerationCompleted)
	assert.Equal(t, events.EventGenerationStarted, published[0].Type)

	var completed events.GenerationCompletedEvent
	for _, e := range published {
		if e.Type == events.EventGenerationCompleted {
			completed = e.Data.(events.GenerationCompletedEvent)
		}
	}
	assert.Equal(t, uint(7), completed.JobID)
	assert.Equal(t, 2, completed.QuestionCount)
	assert.Equal(t, "mock", completed.Provider)

	repo.test.AssertExpectations(t)
}

func TestStartJobMarksFailureAndKeepsProgress(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	primary := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrAuth{Err: errors.New("bad key")}})
	svc := newGenerationServiceWith(repo, publisher, primary, llm.NewMockProvider())

	repo.job.On("Create", mock.Anything, mock.AnythingOfType("*models.GenerationJob")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.GenerationJob).ID = 8
		}).Return(nil)
	repo.job.On("UpdateStatus", mock.Anything, uint(8), models.JobGenerating, mock.Anything, (*string)(nil)).Return(nil)
	repo.job.On("UpdateStatus", mock.Anything, uint(8), models.JobFailed, -1, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg != ""
	})).Return(nil)

	_, err := svc.StartJob(context.Background(), objectiveTest(1), nil, "")
	require.NoError(t, err)

	published := waitForEvent(t, publisher, events.EventGenerationFailed)
	var failed events.GenerationFailedEvent
	for _, e := range published {
		if e.Type == events.EventGenerationFailed {
			failed = e.Data.(events.GenerationFailedEvent)
		}
	}
	assert.Equal(t, uint(8), failed.JobID)
	assert.NotEmpty(t, failed.ErrorMessage)

	repo.test.AssertNotCalled(t, "ReplaceQuestions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.job.AssertExpectations(t)
}

func TestRegenerateRejectsRunningJob(t *testing.T) {
	repo := newMockRepository()
	svc := newGenerationServiceWith(repo, events.NewMockEventPublisher(testLogger()), llm.NewMockProvider(), llm.NewMockProvider())

	repo.test.On("GetByID", mock.Anything, uint(1)).Return(objectiveTest(1), nil)
	repo.job.On("GetLatestByTest", mock.Anything, uint(1)).Return(&models.GenerationJob{
		ID:     3,
		TestID: 1,
		Status: models.JobGenerating,
	}, nil)

	_, err := svc.Regenerate(context.Background(), 1)

	assert.ErrorIs(t, err, ErrJobAlreadyRunning)
	repo.job.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegenerateStartsFreshJobAfterTerminal(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := newGenerationServiceWith(repo, publisher, llm.NewMockProvider(modelResponse(2)), llm.NewMockProvider())

	repo.test.On("GetByID", mock.Anything, uint(1)).Return(objectiveTest(1), nil)
	repo.job.On("GetLatestByTest", mock.Anything, uint(1)).Return(&models.GenerationJob{
		ID:     3,
		TestID: 1,
		Status: models.JobFailed,
	}, nil)
	repo.job.On("Create", mock.Anything, mock.AnythingOfType("*models.GenerationJob")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.GenerationJob).ID = 4
		}).Return(nil)
	repo.job.On("UpdateStatus", mock.Anything, uint(4), mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.test.On("ReplaceQuestions", mock.Anything, uint(1), mock.Anything, (*models.DiagnosticCriteria)(nil)).Return(nil)

	job, err := svc.Regenerate(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, uint(4), job.ID)
	assert.Equal(t, models.JobPending, job.Status)

	waitForEvent(t, publisher, events.EventGenerationCompleted)
}

func TestGetJobStatusCachesResponse(t *testing.T) {
	repo := newMockRepository()
	svc := newGenerationServiceWith(repo, events.NewMockEventPublisher(testLogger()), llm.NewMockProvider(), llm.NewMockProvider())

	repo.job.On("GetByID", mock.Anything, uint(5)).Return(&models.GenerationJob{
		ID:              5,
		TestID:          1,
		Status:          models.JobReady,
		ProgressPercent: 100,
	}, nil).Once()

	first, err := svc.GetJobStatus(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.JobReady, first.Status)
	assert.Equal(t, 100, first.ProgressPercent)

	// Second read is served from cache; the mock would fail on a second
	// repository hit.
	second, err := svc.GetJobStatus(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, first.JobID, second.JobID)

	repo.job.AssertExpectations(t)
}

func TestGetJobStatusNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newGenerationServiceWith(repo, events.NewMockEventPublisher(testLogger()), llm.NewMockProvider(), llm.NewMockProvider())

	repo.job.On("GetByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetJobStatus(context.Background(), 99)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetLatestJobReportsFailureMessage(t *testing.T) {
	repo := newMockRepository()
	svc := newGenerationServiceWith(repo, events.NewMockEventPublisher(testLogger()), llm.NewMockProvider(), llm.NewMockProvider())

	msg := "model provider authentication failed"
	repo.job.On("GetLatestByTest", mock.Anything, uint(1)).Return(&models.GenerationJob{
		ID:              6,
		TestID:          1,
		Status:          models.JobFailed,
		ProgressPercent: 30,
		ErrorMessage:    &msg,
	}, nil)

	resp, err := svc.GetLatestJob(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, resp.Status)
	assert.Equal(t, 30, resp.ProgressPercent, "a failed job keeps the last checkpoint it reached")
	require.NotNil(t, resp.ErrorMessage)
	assert.Equal(t, msg, *resp.ErrorMessage)
}
