package validator

import (
	"github.com/google/uuid"

	"github.com/quizcraft/generation-service/internal/models"
)

// QuestionNormalizer turns raw model output into canonical tagged-union
// questions. Dispatch is an exhaustive switch on the type tag; any missing
// or invalid field raises a SchemaViolationError carrying the 1-based
// question index.
type QuestionNormalizer struct{}

func NewQuestionNormalizer() *QuestionNormalizer {
	return &QuestionNormalizer{}
}

// NormalizeSet normalizes every question of a raw set. The category decides
// whether correct-answer validation applies: diagnostic questions carry no
// correct answers and skip it entirely.
func (n *QuestionNormalizer) NormalizeSet(raw []RawQuestion, category models.TestCategory) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(raw))
	for i, rq := range raw {
		q, err := n.Normalize(rq, i+1, category)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, nil
}

// Normalize validates and converts one raw question. index is 1-based and
// used only for error reporting.
func (n *QuestionNormalizer) Normalize(rq RawQuestion, index int, category models.TestCategory) (*models.Question, error) {
	if rq.Text == "" {
		return nil, violation(index, "question_text", "is required")
	}

	// Absent tag defaults to mcq; an unknown tag is rejected.
	qtype := rq.Type
	if qtype == "" {
		qtype = models.MCQ
	}
	if !models.IsValidQuestionType(qtype) {
		return nil, violation(index, "question_type", "has unknown value "+string(qtype))
	}

	q := &models.Question{
		QuestionID:  n.questionID(rq.QuestionID),
		Type:        qtype,
		Text:        rq.Text,
		Explanation: rq.Explanation,
		MaxPoints:   rq.MaxPoints,
	}

	if category == models.CategoryDiagnostic {
		return n.normalizeDiagnostic(q, rq, index)
	}

	var err error
	switch qtype {
	case models.MCQ, models.MCQMultiple:
		err = n.normalizeMCQ(q, rq, index)
	case models.Matching:
		err = n.normalizeMatching(q, rq, index)
	case models.Completion:
		err = n.normalizeCompletion(q, rq, index)
	case models.SentenceCompletion:
		err = n.normalizeSentenceCompletion(q, rq, index)
	case models.ShortAnswer:
		err = n.normalizeShortAnswer(q, rq, index)
	case models.TrueFalseMultiple:
		err = n.normalizeTrueFalse(q, rq, index)
	case models.Essay:
		err = n.normalizeEssay(q, rq, index)
	}
	if err != nil {
		return nil, err
	}

	if err := n.checkMaxPoints(q, index); err != nil {
		return nil, err
	}
	return q, nil
}

// questionID keeps an existing server-issued UUID so normalization is
// idempotent, and replaces anything else: model-supplied identifiers
// ("q1", "3", ...) are never trusted.
func (n *QuestionNormalizer) questionID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewString()
}

func (n *QuestionNormalizer) checkMaxPoints(q *models.Question, index int) error {
	if q.Type == models.Essay {
		if q.MaxPoints < models.EssayMinPoints || q.MaxPoints > models.EssayMaxPoints {
			return violation(index, "max_points", "must be between 1 and 100 for essay questions")
		}
		return nil
	}
	if q.MaxPoints < models.ObjectiveMinPoints || q.MaxPoints > models.ObjectiveMaxPoints {
		return violation(index, "max_points", "must be between 1 and 5 for objective questions")
	}
	return nil
}

// normalizeMCQ validates options and correct keys, then re-derives the tag
// from correct-answer cardinality: exactly one correct key means mcq, two or
// more means mcq_multiple, regardless of what the model claimed.
func (n *QuestionNormalizer) normalizeMCQ(q *models.Question, rq RawQuestion, index int) error {
	if len(rq.Options) < 2 {
		return violation(index, "options", "must contain at least 2 entries")
	}
	if len(rq.CorrectAnswerKeys) == 0 {
		return violation(index, "correct_answer_keys", "must contain at least 1 key")
	}

	keys := optionKeySet(rq.Options)
	for _, k := range rq.CorrectAnswerKeys {
		if !keys[k] {
			return violation(index, "correct_answer_keys", "references unknown option key "+k)
		}
	}

	if len(rq.CorrectAnswerKeys) == 1 {
		q.Type = models.MCQ
	} else {
		q.Type = models.MCQMultiple
	}
	q.MCQ = &models.MCQPayload{
		Options:           rq.Options,
		CorrectAnswerKeys: rq.CorrectAnswerKeys,
	}
	return nil
}

func (n *QuestionNormalizer) normalizeMatching(q *models.Question, rq RawQuestion, index int) error {
	if len(rq.LeftItems) == 0 {
		return violation(index, "left_items", "must not be empty")
	}
	if len(rq.RightOptions) == 0 {
		return violation(index, "right_options", "must not be empty")
	}
	if len(rq.CorrectMatches) == 0 {
		return violation(index, "correct_matches", "must not be empty")
	}

	lefts := optionKeySet(rq.LeftItems)
	rights := optionKeySet(rq.RightOptions)
	for _, m := range rq.CorrectMatches {
		if !lefts[m.Left] {
			return violation(index, "correct_matches", "references unknown left key "+m.Left)
		}
		if !rights[m.Right] {
			return violation(index, "correct_matches", "references unknown right key "+m.Right)
		}
	}

	q.Matching = &models.MatchingPayload{
		LeftItems:      rq.LeftItems,
		RightOptions:   rq.RightOptions,
		CorrectMatches: rq.CorrectMatches,
	}
	return nil
}

func (n *QuestionNormalizer) normalizeCompletion(q *models.Question, rq RawQuestion, index int) error {
	if rq.Template == "" {
		return violation(index, "template", "is required")
	}
	if len(rq.Blanks) == 0 {
		return violation(index, "blanks", "must not be empty")
	}
	for _, blank := range rq.Blanks {
		variants, ok := rq.CorrectAnswers[blank]
		if !ok || len(variants) == 0 {
			return violation(index, "correct_answers", "has no accepted variants for blank "+blank)
		}
	}

	q.Completion = &models.CompletionPayload{
		Template:       rq.Template,
		Blanks:         rq.Blanks,
		CorrectAnswers: rq.CorrectAnswers,
		CaseSensitive:  rq.CaseSensitive,
	}
	return nil
}

func (n *QuestionNormalizer) normalizeSentenceCompletion(q *models.Question, rq RawQuestion, index int) error {
	if len(rq.Items) == 0 {
		return violation(index, "items", "must not be empty")
	}

	items := make([]models.SentenceItem, 0, len(rq.Items))
	for _, it := range rq.Items {
		if it.Template == "" {
			return violation(index, "items", "contains an entry without a template")
		}
		if len(it.AcceptedAnswers) == 0 {
			return violation(index, "items", "contains an entry without accepted answers")
		}
		items = append(items, models.SentenceItem{Template: it.Template, AcceptedAnswers: it.AcceptedAnswers})
	}

	q.SentenceCompletion = &models.SentenceCompletionPayload{
		Items:         items,
		CaseSensitive: rq.CaseSensitive,
	}
	return nil
}

// normalizeShortAnswer accepts either the items form or the legacy form
// where accepted variants sit directly on the question; the legacy form is
// folded into a single item prompting with the question text.
func (n *QuestionNormalizer) normalizeShortAnswer(q *models.Question, rq RawQuestion, index int) error {
	rawItems := rq.Items
	if len(rawItems) == 0 && len(rq.AcceptedAnswers) > 0 {
		rawItems = []RawItem{{Prompt: rq.Text, AcceptedAnswers: rq.AcceptedAnswers}}
	}
	if len(rawItems) == 0 {
		return violation(index, "items", "must not be empty")
	}

	items := make([]models.ShortAnswerItem, 0, len(rawItems))
	for _, it := range rawItems {
		prompt := it.Prompt
		if prompt == "" {
			prompt = it.Template
		}
		if prompt == "" {
			return violation(index, "items", "contains an entry without a prompt")
		}
		if len(it.AcceptedAnswers) == 0 {
			return violation(index, "items", "contains an entry without accepted answers")
		}
		items = append(items, models.ShortAnswerItem{Prompt: prompt, AcceptedAnswers: it.AcceptedAnswers})
	}

	q.ShortAnswer = &models.ShortAnswerPayload{
		Items:         items,
		CaseSensitive: rq.CaseSensitive,
	}
	return nil
}

func (n *QuestionNormalizer) normalizeTrueFalse(q *models.Question, rq RawQuestion, index int) error {
	if len(rq.Statements) == 0 {
		return violation(index, "statements", "must not be empty")
	}

	mode := rq.ScoringMode
	if mode == "" {
		mode = models.ScoringPartial
	}
	if mode != models.ScoringPartial && mode != models.ScoringAllOrNothing {
		return violation(index, "scoring_mode", "has unknown value "+string(mode))
	}

	q.TrueFalse = &models.TrueFalsePayload{
		Statements:  rq.Statements,
		ScoringMode: mode,
	}
	return nil
}

func (n *QuestionNormalizer) normalizeEssay(q *models.Question, rq RawQuestion, index int) error {
	if rq.Rubric == "" {
		return violation(index, "rubric", "is required")
	}
	q.Essay = &models.EssayPayload{
		Rubric:       rq.Rubric,
		SampleAnswer: rq.SampleAnswer,
	}
	return nil
}

// normalizeDiagnostic skips every correct-answer check: diagnostic
// questions classify rather than test, so only the options matter.
// They carry no max_points.
func (n *QuestionNormalizer) normalizeDiagnostic(q *models.Question, rq RawQuestion, index int) (*models.Question, error) {
	if len(rq.Options) < 2 {
		return nil, violation(index, "options", "must contain at least 2 entries")
	}
	q.Type = models.MCQ
	q.MaxPoints = 0
	q.MCQ = &models.MCQPayload{Options: rq.Options}
	return q, nil
}

func optionKeySet(options []models.Option) map[string]bool {
	keys := make(map[string]bool, len(options))
	for _, o := range options {
		keys[o.Key] = true
	}
	return keys
}
