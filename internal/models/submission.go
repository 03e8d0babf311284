package models

import (
	"time"

	"gorm.io/datatypes"
)

type GradingStatus string

const (
	AutoGraded      GradingStatus = "auto_graded"
	PendingGrading  GradingStatus = "pending_grading"
	PartiallyGraded GradingStatus = "partially_graded"
	FullyGraded     GradingStatus = "fully_graded"
)

// Submission records one learner's answer set for a test. The answer set is
// immutable after submit; only essay grades and the derived score fields
// change afterwards.
type Submission struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	TestID uint   `json:"test_id" gorm:"not null;index"`
	UserID string `json:"user_id" gorm:"not null;size:64;index"`

	Answers datatypes.JSONType[[]Answer]         `json:"answers"`
	Results datatypes.JSONType[[]QuestionResult] `json:"results"`

	GradingStatus GradingStatus                    `json:"grading_status" gorm:"not null;default:auto_graded;index"`
	EssayGrades   datatypes.JSONType[[]EssayGrade] `json:"essay_grades"`

	CorrectCount    int     `json:"correct_count"`
	ScoreOutOf10    float64 `json:"score_out_of_10"`
	ScorePercentage float64 `json:"score_percentage"`
	IsPassed        bool    `json:"is_passed"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// EssayGrade is one human-supplied grade for an essay question. Re-grading
// replaces the entry for the same question in place.
type EssayGrade struct {
	QuestionID    string    `json:"question_id"`
	PointsAwarded float64   `json:"points_awarded"`
	MaxPoints     int       `json:"max_points"`
	Feedback      string    `json:"feedback,omitempty"`
	GraderID      string    `json:"grader_id"`
	GradedAt      time.Time `json:"graded_at"`
}

// GradeFor returns the recorded grade for a question, if any.
func (s *Submission) GradeFor(questionID string) *EssayGrade {
	grades := s.EssayGrades.Data()
	for i := range grades {
		if grades[i].QuestionID == questionID {
			return &grades[i]
		}
	}
	return nil
}

// AnswerFor returns the submitted answer for a question, if any.
func (s *Submission) AnswerFor(questionID string) *Answer {
	answers := s.Answers.Data()
	for i := range answers {
		if answers[i].QuestionID == questionID {
			return &answers[i]
		}
	}
	return nil
}
