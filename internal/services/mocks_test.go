package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/quizcraft/generation-service/internal/cache"
	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
)

// ===== REPOSITORY MOCKS =====

type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, test *models.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) Update(ctx context.Context, test *models.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTestRepository) List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Test), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRepository) ReplaceQuestions(ctx context.Context, testID uint, questions []models.Question, criteria *models.DiagnosticCriteria) error {
	args := m.Called(ctx, testID, questions, criteria)
	return args.Error(0)
}

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.GenerationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id uint) (*models.GenerationJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationJob), args.Error(1)
}

func (m *MockJobRepository) GetLatestByTest(ctx context.Context, testID uint) (*models.GenerationJob, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationJob), args.Error(1)
}

func (m *MockJobRepository) UpdateStatus(ctx context.Context, id uint, status models.JobStatus, progress int, errorMessage *string) error {
	args := m.Called(ctx, id, status, progress, errorMessage)
	return args.Error(0)
}

type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) ListByTest(ctx context.Context, testID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, testID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) CountByTestAndUser(ctx context.Context, testID uint, userID string) (int64, error) {
	args := m.Called(ctx, testID, userID)
	return args.Get(0).(int64), args.Error(1)
}

// mockRepository bundles the three mocks behind the aggregate interface.
type mockRepository struct {
	test       *MockTestRepository
	job        *MockJobRepository
	submission *MockSubmissionRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		test:       new(MockTestRepository),
		job:        new(MockJobRepository),
		submission: new(MockSubmissionRepository),
	}
}

func (r *mockRepository) Test() repositories.TestRepository             { return r.test }
func (r *mockRepository) Job() repositories.JobRepository               { return r.job }
func (r *mockRepository) Submission() repositories.SubmissionRepository { return r.submission }

// ===== CACHE =====

// memoryCache is a map-backed CacheService. TTLs are ignored; tests only
// care about hit and miss behavior.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

// ===== FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boolPtr(b bool) *bool { return &b }

const (
	fixtureMCQID    = "11111111-1111-4111-8111-111111111111"
	fixtureTFID     = "22222222-2222-4222-8222-222222222222"
	fixtureEssayID  = "33333333-3333-4333-8333-333333333333"
	fixtureEssay2ID = "44444444-4444-4444-8444-444444444444"
)

func mcqQuestion(id string, points int) models.Question {
	return models.Question{
		QuestionID: id,
		Type:       models.MCQ,
		Text:       "Which planet is closest to the sun?",
		MaxPoints:  points,
		MCQ: &models.MCQPayload{
			Options: []models.Option{
				{Key: "A", Text: "Mercury"},
				{Key: "B", Text: "Venus"},
				{Key: "C", Text: "Mars"},
			},
			CorrectAnswerKeys: []string{"A"},
		},
	}
}

func trueFalseQuestion(id string, points int) models.Question {
	return models.Question{
		QuestionID: id,
		Type:       models.TrueFalseMultiple,
		Text:       "Mark each statement",
		MaxPoints:  points,
		TrueFalse: &models.TrueFalsePayload{
			Statements: []models.Statement{
				{Text: "Water boils at 100C at sea level", CorrectValue: true},
				{Text: "The sun orbits the earth", CorrectValue: false},
			},
			ScoringMode: models.ScoringPartial,
		},
	}
}

func essayQuestion(id string, points int) models.Question {
	return models.Question{
		QuestionID: id,
		Type:       models.Essay,
		Text:       "Discuss the causes of the industrial revolution",
		MaxPoints:  points,
		Essay: &models.EssayPayload{
			Rubric: "Argument structure and use of evidence",
		},
	}
}

// objectiveTest holds only auto-gradable questions: one MCQ worth 2 and a
// true/false block worth 2, passing score 50.
func objectiveTest(id uint) *models.Test {
	return &models.Test{
		ID:             id,
		Title:          "Solar system basics",
		Category:       models.CategoryAcademic,
		SourceKind:     models.SourceGeneralKnowledge,
		RequestedCount: 2,
		PassingScore:   50,
		CreatedBy:      "teacher-1",
		Questions: datatypes.NewJSONType([]models.Question{
			mcqQuestion(fixtureMCQID, 2),
			trueFalseQuestion(fixtureTFID, 2),
		}),
	}
}

// mixedTest adds two essays worth 10 each on top of the objective pair.
func mixedTest(id uint) *models.Test {
	t := objectiveTest(id)
	qs := t.Questions.Data()
	qs = append(qs,
		essayQuestion(fixtureEssayID, 10),
		essayQuestion(fixtureEssay2ID, 10),
	)
	t.Questions = datatypes.NewJSONType(qs)
	return t
}
