package validator

import (
	"github.com/quizcraft/generation-service/internal/models"
)

// RawQuestionSet is the parsed model output before normalization. Fields are
// loosely typed on purpose: the model is not trusted to fill the right ones.
type RawQuestionSet struct {
	Questions          []RawQuestion              `json:"questions"`
	DiagnosticCriteria *models.DiagnosticCriteria `json:"diagnostic_criteria,omitempty"`
}

// RawQuestion carries every field any question type may use. The normalizer
// dispatches on question_type and verifies the required subset.
type RawQuestion struct {
	QuestionID  string              `json:"question_id,omitempty"`
	Text        string              `json:"question_text"`
	Type        models.QuestionType `json:"question_type,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
	MaxPoints   int                 `json:"max_points,omitempty"`

	Options           []models.Option    `json:"options,omitempty"`
	CorrectAnswerKeys []string           `json:"correct_answer_keys,omitempty"`
	LeftItems         []models.Option    `json:"left_items,omitempty"`
	RightOptions      []models.Option    `json:"right_options,omitempty"`
	CorrectMatches    []models.MatchPair `json:"correct_matches,omitempty"`

	Template       string              `json:"template,omitempty"`
	Blanks         []string            `json:"blanks,omitempty"`
	CorrectAnswers map[string][]string `json:"correct_answers,omitempty"`
	CaseSensitive  bool                `json:"case_sensitive,omitempty"`

	Items []RawItem `json:"items,omitempty"`

	// AcceptedAnswers is the legacy single-field short_answer form: accepted
	// variants attached directly to the question instead of an items list.
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`

	Statements  []models.Statement `json:"statements,omitempty"`
	ScoringMode models.ScoringMode `json:"scoring_mode,omitempty"`

	Rubric       string `json:"rubric,omitempty"`
	SampleAnswer string `json:"sample_answer,omitempty"`
}

// RawItem is one sub-entry of a sentence_completion or short_answer
// question. Sentence items use Template, short-answer items use Prompt.
type RawItem struct {
	Template        string   `json:"template,omitempty"`
	Prompt          string   `json:"prompt,omitempty"`
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`
}

// RawFromQuestion converts a canonical question back to raw form. Edit
// operations use this to run changed questions through the same
// normalization path; normalizing an unchanged question is a no-op.
func RawFromQuestion(q models.Question) RawQuestion {
	raw := RawQuestion{
		QuestionID:  q.QuestionID,
		Text:        q.Text,
		Type:        q.Type,
		Explanation: q.Explanation,
		MaxPoints:   q.MaxPoints,
	}

	switch q.Type {
	case models.MCQ, models.MCQMultiple:
		if q.MCQ != nil {
			raw.Options = q.MCQ.Options
			raw.CorrectAnswerKeys = q.MCQ.CorrectAnswerKeys
		}
	case models.Matching:
		if q.Matching != nil {
			raw.LeftItems = q.Matching.LeftItems
			raw.RightOptions = q.Matching.RightOptions
			raw.CorrectMatches = q.Matching.CorrectMatches
		}
	case models.Completion:
		if q.Completion != nil {
			raw.Template = q.Completion.Template
			raw.Blanks = q.Completion.Blanks
			raw.CorrectAnswers = q.Completion.CorrectAnswers
			raw.CaseSensitive = q.Completion.CaseSensitive
		}
	case models.SentenceCompletion:
		if q.SentenceCompletion != nil {
			raw.CaseSensitive = q.SentenceCompletion.CaseSensitive
			for _, it := range q.SentenceCompletion.Items {
				raw.Items = append(raw.Items, RawItem{Template: it.Template, AcceptedAnswers: it.AcceptedAnswers})
			}
		}
	case models.ShortAnswer:
		if q.ShortAnswer != nil {
			raw.CaseSensitive = q.ShortAnswer.CaseSensitive
			for _, it := range q.ShortAnswer.Items {
				raw.Items = append(raw.Items, RawItem{Prompt: it.Prompt, AcceptedAnswers: it.AcceptedAnswers})
			}
		}
	case models.TrueFalseMultiple:
		if q.TrueFalse != nil {
			raw.Statements = q.TrueFalse.Statements
			raw.ScoringMode = q.TrueFalse.ScoringMode
		}
	case models.Essay:
		if q.Essay != nil {
			raw.Rubric = q.Essay.Rubric
			raw.SampleAnswer = q.Essay.SampleAnswer
		}
	}
	return raw
}
