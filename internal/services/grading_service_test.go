package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/quizcraft/generation-service/internal/events"
	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
	"github.com/quizcraft/generation-service/internal/utils"
)

func newGradingService(repo *mockRepository, publisher events.EventPublisher) GradingService {
	return NewGradingService(repo, publisher, testLogger(), utils.NewValidator())
}

// pendingSubmission mirrors what Submit stores for mixedTest with every
// objective question answered correctly and both essays answered.
func pendingSubmission(id, testID uint) *models.Submission {
	return &models.Submission{
		ID:            id,
		TestID:        testID,
		UserID:        "learner-1",
		GradingStatus: models.PendingGrading,
		SubmittedAt:   time.Now().UTC(),
		Results: datatypes.NewJSONType([]models.QuestionResult{
			{QuestionID: fixtureMCQID, Type: models.MCQ, IsCorrect: true, PointsAwarded: 2, MaxPoints: 2},
			{QuestionID: fixtureTFID, Type: models.TrueFalseMultiple, IsCorrect: true, PointsAwarded: 2, MaxPoints: 2},
			{QuestionID: fixtureEssayID, Type: models.Essay, MaxPoints: 10, RequiresGrading: true},
			{QuestionID: fixtureEssay2ID, Type: models.Essay, MaxPoints: 10, RequiresGrading: true},
		}),
	}
}

func TestGradeEssayAdvancesToPartiallyGraded(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := newGradingService(repo, publisher)

	submission := pendingSubmission(10, 1)
	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(submission, nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)
	repo.submission.On("Update", mock.Anything, submission).Return(nil)

	graded, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 8,
		Feedback:      "Solid argument, thin on evidence.",
	}, "grader-1")

	require.NoError(t, err)
	assert.Equal(t, models.PartiallyGraded, graded.GradingStatus)
	assert.Zero(t, graded.ScorePercentage, "aggregate waits for the last essay")

	grades := graded.EssayGrades.Data()
	require.Len(t, grades, 1)
	assert.Equal(t, 8.0, grades[0].PointsAwarded)
	assert.Equal(t, "grader-1", grades[0].GraderID)

	results := graded.Results.Data()
	assert.Equal(t, 8.0, results[2].PointsAwarded)
	assert.False(t, results[2].RequiresGrading)
	assert.False(t, results[2].IsCorrect, "8 of 10 is not full marks")

	assert.Empty(t, publisher.PublishedEvents(), "no event until fully graded")
}

func TestGradeEssayCompletesGrading(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := newGradingService(repo, publisher)

	submission := pendingSubmission(10, 1)
	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(submission, nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)
	repo.submission.On("Update", mock.Anything, submission).Return(nil)

	_, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 8,
	}, "grader-1")
	require.NoError(t, err)

	graded, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssay2ID,
		PointsAwarded: 7,
	}, "grader-1")
	require.NoError(t, err)

	assert.Equal(t, models.FullyGraded, graded.GradingStatus)

	// 2 + 2 objective plus 8 + 7 essay points out of 24 total.
	assert.Equal(t, 79.17, graded.ScorePercentage)
	assert.Equal(t, 7.92, graded.ScoreOutOf10)
	assert.Equal(t, 2, graded.CorrectCount, "partial essay credit is not a correct answer")
	assert.True(t, graded.IsPassed)

	published := publisher.PublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventSubmissionFullyGraded, published[0].Type)
	data := published[0].Data.(events.SubmissionFullyGradedEvent)
	assert.Equal(t, 79.17, data.ScorePercentage)
	assert.True(t, data.IsPassed)
}

func TestGradeEssayFullMarksCountsAsCorrect(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	submission := pendingSubmission(10, 1)
	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(submission, nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)
	repo.submission.On("Update", mock.Anything, submission).Return(nil)

	graded, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 10,
	}, "grader-1")

	require.NoError(t, err)
	results := graded.Results.Data()
	assert.True(t, results[2].IsCorrect)
}

func TestGradeEssayRegradeReplacesPreviousGrade(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	submission := pendingSubmission(10, 1)
	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(submission, nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)
	repo.submission.On("Update", mock.Anything, submission).Return(nil)

	_, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 4,
	}, "grader-1")
	require.NoError(t, err)

	graded, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 6,
		Feedback:      "Revised after appeal.",
	}, "grader-2")
	require.NoError(t, err)

	grades := graded.EssayGrades.Data()
	require.Len(t, grades, 1)
	assert.Equal(t, 6.0, grades[0].PointsAwarded)
	assert.Equal(t, "grader-2", grades[0].GraderID)
	assert.Equal(t, models.PartiallyGraded, graded.GradingStatus,
		"regrading a graded essay must not regress the status")
}

func TestGradeEssayRejectsAutoGradedSubmission(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	submission := pendingSubmission(10, 1)
	submission.GradingStatus = models.AutoGraded
	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(submission, nil)

	_, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 5,
	}, "grader-1")

	require.Error(t, err)
	var stateErr *GradingStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.AutoGraded, stateErr.Current)
	repo.test.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGradeEssayUnknownQuestion(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(pendingSubmission(10, 1), nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)

	_, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    "99999999-9999-4999-8999-999999999999",
		PointsAwarded: 5,
	}, "grader-1")

	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestGradeEssayRejectsObjectiveQuestion(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(pendingSubmission(10, 1), nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)

	_, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureMCQID,
		PointsAwarded: 1,
	}, "grader-1")

	assert.ErrorIs(t, err, ErrGradingNotRequired)
}

func TestGradeEssayRejectsPointsOverMaximum(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	repo.submission.On("GetByID", mock.Anything, uint(10)).Return(pendingSubmission(10, 1), nil)
	repo.test.On("GetByID", mock.Anything, uint(1)).Return(mixedTest(1), nil)

	_, err := svc.GradeEssay(context.Background(), 10, &GradeEssayRequest{
		QuestionID:    fixtureEssayID,
		PointsAwarded: 11,
	}, "grader-1")

	assert.ErrorIs(t, err, ErrGradingInvalidScore)
	repo.submission.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListPendingDefaultsToPendingStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newGradingService(repo, events.NewMockEventPublisher(testLogger()))

	repo.submission.On("ListByTest", mock.Anything, uint(1), mock.MatchedBy(func(f repositories.SubmissionFilters) bool {
		return f.GradingStatus != nil && *f.GradingStatus == models.PendingGrading && f.Limit == 20
	})).Return([]*models.Submission{pendingSubmission(10, 1)}, int64(1), nil)

	resp, err := svc.ListPending(context.Background(), 1, repositories.SubmissionFilters{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Submissions, 1)
}
