package models

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobGenerating JobStatus = "generating"
	JobReady      JobStatus = "ready"
	JobFailed     JobStatus = "failed"
)

// GenerationJob tracks one generation lifecycle for a test. Terminal at
// ready or failed; regeneration creates a fresh row at pending rather than
// resuming this one.
type GenerationJob struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TestID          uint      `json:"test_id" gorm:"not null;index"`
	Status          JobStatus `json:"status" gorm:"not null;default:pending;index"`
	ProgressPercent int       `json:"progress_percent" gorm:"default:0"`
	ErrorMessage    *string   `json:"error_message,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// IsTerminal reports whether the job can no longer change state.
func (j *GenerationJob) IsTerminal() bool {
	return j.Status == JobReady || j.Status == JobFailed
}
