package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quizcraft/generation-service/internal/models"
)

// Repository aggregates the per-entity repositories so services take a
// single dependency.
type Repository interface {
	Test() TestRepository
	Job() JobRepository
	Submission() SubmissionRepository
}

type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	Update(ctx context.Context, test *models.Test) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters TestFilters) ([]*models.Test, int64, error)

	// ReplaceQuestions overwrites the whole question array (and, for
	// diagnostic tests, the criteria) in one atomic update. Questions are
	// never patched in place.
	ReplaceQuestions(ctx context.Context, testID uint, questions []models.Question, criteria *models.DiagnosticCriteria) error
}

type JobRepository interface {
	Create(ctx context.Context, job *models.GenerationJob) error
	GetByID(ctx context.Context, id uint) (*models.GenerationJob, error)
	GetLatestByTest(ctx context.Context, testID uint) (*models.GenerationJob, error)

	// UpdateStatus writes status, progress and error message as a single
	// atomic update so readers never observe a torn pair. A negative
	// progress leaves the stored value untouched.
	UpdateStatus(ctx context.Context, id uint, status models.JobStatus, progress int, errorMessage *string) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	ListByTest(ctx context.Context, testID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)
	CountByTestAndUser(ctx context.Context, testID uint, userID string) (int64, error)
}

type TestFilters struct {
	Category  *models.TestCategory `json:"category"`
	CreatedBy *string              `json:"created_by"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

type SubmissionFilters struct {
	UserID        *string               `json:"user_id"`
	GradingStatus *models.GradingStatus `json:"grading_status"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// IsNotFoundError reports whether err is the store's record-not-found.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
