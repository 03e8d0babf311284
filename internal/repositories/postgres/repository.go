package postgres

import (
	"gorm.io/gorm"

	"github.com/quizcraft/generation-service/internal/repositories"
)

type Repository struct {
	test       repositories.TestRepository
	job        repositories.JobRepository
	submission repositories.SubmissionRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		test:       NewTestPostgreSQL(db),
		job:        NewGenerationJobPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *Repository) Test() repositories.TestRepository             { return r.test }
func (r *Repository) Job() repositories.JobRepository               { return r.job }
func (r *Repository) Submission() repositories.SubmissionRepository { return r.submission }
