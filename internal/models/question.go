package models

// QuestionType is the discriminator tag of the question union.
type QuestionType string

const (
	MCQ                QuestionType = "mcq"
	MCQMultiple        QuestionType = "mcq_multiple"
	Matching           QuestionType = "matching"
	Completion         QuestionType = "completion"
	SentenceCompletion QuestionType = "sentence_completion"
	ShortAnswer        QuestionType = "short_answer"
	TrueFalseMultiple  QuestionType = "true_false_multiple"
	Essay              QuestionType = "essay"
)

// ObjectiveMaxPoints and EssayMaxPoints bound the per-question point value.
const (
	ObjectiveMinPoints = 1
	ObjectiveMaxPoints = 5
	EssayMinPoints     = 1
	EssayMaxPoints     = 100
)

// IsValidQuestionType reports whether t is one of the known tags.
func IsValidQuestionType(t QuestionType) bool {
	switch t {
	case MCQ, MCQMultiple, Matching, Completion, SentenceCompletion, ShortAnswer, TrueFalseMultiple, Essay:
		return true
	}
	return false
}

// Question is the canonical tagged union. Exactly one payload pointer is
// non-nil and it must match Type. Built only by the normalizer or by
// explicit edit operations; never partially mutated.
type Question struct {
	QuestionID  string       `json:"question_id"`
	Type        QuestionType `json:"question_type"`
	Text        string       `json:"question_text"`
	Explanation string       `json:"explanation,omitempty"`
	MaxPoints   int          `json:"max_points"`

	MCQ                *MCQPayload                `json:"mcq,omitempty"`
	Matching           *MatchingPayload           `json:"matching,omitempty"`
	Completion         *CompletionPayload         `json:"completion,omitempty"`
	SentenceCompletion *SentenceCompletionPayload `json:"sentence_completion,omitempty"`
	ShortAnswer        *ShortAnswerPayload        `json:"short_answer,omitempty"`
	TrueFalse          *TrueFalsePayload          `json:"true_false,omitempty"`
	Essay              *EssayPayload              `json:"essay,omitempty"`
}

// Option is a selectable choice or a matching item, identified by a short key.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// MCQPayload covers both mcq and mcq_multiple. The tag is derived from
// len(CorrectAnswerKeys), never trusted from model output.
type MCQPayload struct {
	Options           []Option `json:"options"`
	CorrectAnswerKeys []string `json:"correct_answer_keys,omitempty"`
}

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingPayload struct {
	LeftItems      []Option    `json:"left_items"`
	RightOptions   []Option    `json:"right_options"`
	CorrectMatches []MatchPair `json:"correct_matches,omitempty"`
}

// CompletionPayload holds a template with numbered blank markers like [1].
// CorrectAnswers maps a blank key to its accepted text variants.
type CompletionPayload struct {
	Template       string              `json:"template"`
	Blanks         []string            `json:"blanks"`
	CorrectAnswers map[string][]string `json:"correct_answers,omitempty"`
	CaseSensitive  bool                `json:"case_sensitive,omitempty"`
}

type SentenceItem struct {
	Template        string   `json:"template"`
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`
}

type SentenceCompletionPayload struct {
	Items         []SentenceItem `json:"items"`
	CaseSensitive bool           `json:"case_sensitive,omitempty"`
}

type ShortAnswerItem struct {
	Prompt          string   `json:"prompt"`
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`
}

type ShortAnswerPayload struct {
	Items         []ShortAnswerItem `json:"items"`
	CaseSensitive bool              `json:"case_sensitive,omitempty"`
}

type Statement struct {
	Text         string `json:"text"`
	CorrectValue bool   `json:"correct_value"`
}

// ScoringMode selects between proportional and all-or-nothing scoring for
// true_false_multiple questions.
type ScoringMode string

const (
	ScoringPartial      ScoringMode = "partial"
	ScoringAllOrNothing ScoringMode = "all_or_nothing"
)

type TrueFalsePayload struct {
	Statements  []Statement `json:"statements"`
	ScoringMode ScoringMode `json:"scoring_mode"`
}

type EssayPayload struct {
	Rubric       string `json:"rubric"`
	SampleAnswer string `json:"sample_answer,omitempty"`
	MinWords     *int   `json:"min_words,omitempty"`
	MaxWords     *int   `json:"max_words,omitempty"`
}

// Payload returns the active payload pointer for the question's tag, or nil
// if the payload is missing or mismatched.
func (q *Question) Payload() any {
	switch q.Type {
	case MCQ, MCQMultiple:
		if q.MCQ != nil {
			return q.MCQ
		}
	case Matching:
		if q.Matching != nil {
			return q.Matching
		}
	case Completion:
		if q.Completion != nil {
			return q.Completion
		}
	case SentenceCompletion:
		if q.SentenceCompletion != nil {
			return q.SentenceCompletion
		}
	case ShortAnswer:
		if q.ShortAnswer != nil {
			return q.ShortAnswer
		}
	case TrueFalseMultiple:
		if q.TrueFalse != nil {
			return q.TrueFalse
		}
	case Essay:
		if q.Essay != nil {
			return q.Essay
		}
	}
	return nil
}

// IsObjective reports whether the question is auto-scorable.
func (q *Question) IsObjective() bool {
	return q.Type != Essay
}
