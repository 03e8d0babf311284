package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
)

type GenerationJobPostgreSQL struct {
	db *gorm.DB
}

func NewGenerationJobPostgreSQL(db *gorm.DB) repositories.JobRepository {
	return &GenerationJobPostgreSQL{db: db}
}

func (r *GenerationJobPostgreSQL) Create(ctx context.Context, job *models.GenerationJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create generation job: %w", err)
	}
	return nil
}

func (r *GenerationJobPostgreSQL) GetByID(ctx context.Context, id uint) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *GenerationJobPostgreSQL) GetLatestByTest(ctx context.Context, testID uint) (*models.GenerationJob, error) {
	var job models.GenerationJob
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *GenerationJobPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.JobStatus, progress int, errorMessage *string) error {
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}
	// Negative progress means "leave as is", so a failing job keeps the
	// last checkpoint it actually reached.
	if progress >= 0 {
		updates["progress_percent"] = progress
	}

	result := r.db.WithContext(ctx).Model(&models.GenerationJob{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update generation job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
