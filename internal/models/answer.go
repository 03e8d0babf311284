package models

// Answer is one learner answer. The populated fields must match the shape
// of the question the QuestionID refers to.
type Answer struct {
	QuestionID string `json:"question_id"`

	// mcq / mcq_multiple: selected option keys (exactly one for mcq).
	SelectedKeys []string `json:"selected_keys,omitempty"`

	// matching: the learner's left->right pairings.
	Matches []MatchPair `json:"matches,omitempty"`

	// completion: blank key -> filled text.
	BlankValues map[string]string `json:"blank_values,omitempty"`

	// sentence_completion / short_answer: one value per item, in item order.
	TextValues []string `json:"text_values,omitempty"`

	// true_false_multiple: one choice per statement, in statement order.
	// Nil entries count as unanswered (incorrect).
	BoolValues []*bool `json:"bool_values,omitempty"`

	// essay: free text, graded by a human.
	EssayText string `json:"essay_text,omitempty"`
}

// QuestionResult is the raw per-question scoring outcome stored on a
// submission. Essay results carry RequiresGrading until a grader acts.
type QuestionResult struct {
	QuestionID      string       `json:"question_id"`
	Type            QuestionType `json:"question_type"`
	IsCorrect       bool         `json:"is_correct"`
	PointsAwarded   float64      `json:"points_awarded"`
	MaxPoints       int          `json:"max_points"`
	RequiresGrading bool         `json:"requires_grading,omitempty"`
}
