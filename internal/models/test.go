package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestCategory string

const (
	CategoryAcademic   TestCategory = "academic"
	CategoryDiagnostic TestCategory = "diagnostic"
)

type SourceKind string

const (
	SourceDocument         SourceKind = "document"
	SourceGeneralKnowledge SourceKind = "general_knowledge"
	SourcePDFAttachment    SourceKind = "pdf_attachment"
)

type DistributionMode string

const (
	DistributionAuto        DistributionMode = "auto"
	DistributionTraditional DistributionMode = "traditional"
	DistributionManual      DistributionMode = "manual"
)

// AnswerVisibility controls when correct answers are revealed to the learner.
type AnswerVisibility string

const (
	VisibilityAfterSubmit  AnswerVisibility = "after_submit"
	VisibilityAfterGrading AnswerVisibility = "after_grading"
	VisibilityNever        AnswerVisibility = "never"
)

// Test is the persisted test definition. Questions are stored as a single
// jsonb array and only ever replaced wholesale, never patched in place.
type Test struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	Title    string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Language string       `json:"language" gorm:"size:10;default:en" validate:"omitempty,min=2,max=10"`
	Category TestCategory `json:"category" gorm:"not null;index" validate:"required,oneof=academic diagnostic"`

	SourceKind    SourceKind `json:"source_kind" gorm:"not null" validate:"required,oneof=document general_knowledge pdf_attachment"`
	Topic         *string    `json:"topic" gorm:"size:500" validate:"omitempty,max=500"`
	SourceContent *string    `json:"source_content" gorm:"type:text"`

	RequestedCount   int              `json:"requested_count" gorm:"not null" validate:"required,min=1,max=50"`
	DistributionMode DistributionMode `json:"distribution_mode" gorm:"default:auto" validate:"omitempty,oneof=auto traditional manual"`
	ManualBreakdown  datatypes.JSONType[map[QuestionType]int] `json:"manual_breakdown"`
	Difficulty       string           `json:"difficulty" gorm:"size:20;default:medium" validate:"omitempty,oneof=easy medium hard"`
	PassingScore     int              `json:"passing_score" gorm:"default:50" validate:"min=0,max=100"`
	MaxAttempts      int              `json:"max_attempts" gorm:"default:0" validate:"min=0,max=10"`
	AnswerVisibility AnswerVisibility `json:"answer_visibility" gorm:"default:after_submit" validate:"omitempty,oneof=after_submit after_grading never"`

	Questions          datatypes.JSONType[[]Question]       `json:"questions"`
	DiagnosticCriteria *datatypes.JSONType[DiagnosticCriteria] `json:"diagnostic_criteria,omitempty"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:64;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Test) TableName() string {
	return "tests"
}

// EssayQuestionCount returns how many essay questions the test contains.
func (t *Test) EssayQuestionCount() int {
	n := 0
	for _, q := range t.Questions.Data() {
		if q.Type == Essay {
			n++
		}
	}
	return n
}

// MaxTotalPoints sums max_points over every question.
func (t *Test) MaxTotalPoints() int {
	total := 0
	for _, q := range t.Questions.Data() {
		total += q.MaxPoints
	}
	return total
}

// QuestionByID finds a question in the test's current question set.
func (t *Test) QuestionByID(id string) *Question {
	qs := t.Questions.Data()
	for i := range qs {
		if qs[i].QuestionID == id {
			return &qs[i]
		}
	}
	return nil
}

// DiagnosticCriteria classifies a respondent of a diagnostic test into one
// of 3-5 result types. Diagnostic questions carry no correct answers.
type DiagnosticCriteria struct {
	ResultTypes  []ResultType `json:"result_types"`
	MappingRules string       `json:"mapping_rules"`
}

type ResultType struct {
	TypeID      string   `json:"type_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
}
