package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (r *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionPostgreSQL) Update(ctx context.Context, submission *models.Submission) error {
	if err := r.db.WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return nil
}

func (r *SubmissionPostgreSQL) ListByTest(ctx context.Context, testID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).Where("test_id = ?", testID)

	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.GradingStatus != nil {
		query = query.Where("grading_status = ?", *filters.GradingStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = query.Order("submitted_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var submissions []*models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

func (r *SubmissionPostgreSQL) CountByTestAndUser(ctx context.Context, testID uint, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("test_id = ? AND user_id = ?", testID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}
