package scoring

import (
	"math"
	"strings"

	"github.com/quizcraft/generation-service/internal/models"
)

// Score computes the raw result for one question/answer pair. It is a pure
// function: no clock, no randomness, no state. Essay questions are never
// scored here; they come back flagged RequiresGrading and a human grader
// supplies the points later.
func Score(q models.Question, a models.Answer) models.QuestionResult {
	result := models.QuestionResult{
		QuestionID: q.QuestionID,
		Type:       q.Type,
		MaxPoints:  q.MaxPoints,
	}

	switch q.Type {
	case models.MCQ:
		result.IsCorrect, result.PointsAwarded = scoreMCQ(q, a)
	case models.MCQMultiple:
		result.IsCorrect, result.PointsAwarded = scoreMCQMultiple(q, a)
	case models.Matching:
		result.IsCorrect, result.PointsAwarded = scoreMatching(q, a)
	case models.Completion:
		result.IsCorrect, result.PointsAwarded = scoreCompletion(q, a)
	case models.SentenceCompletion:
		result.IsCorrect, result.PointsAwarded = scoreSentenceCompletion(q, a)
	case models.ShortAnswer:
		result.IsCorrect, result.PointsAwarded = scoreShortAnswer(q, a)
	case models.TrueFalseMultiple:
		result.IsCorrect, result.PointsAwarded = scoreTrueFalse(q, a)
	case models.Essay:
		result.RequiresGrading = true
	}

	return result
}

// scoreMCQ: correct iff the single selected key equals the sole correct key.
func scoreMCQ(q models.Question, a models.Answer) (bool, float64) {
	if q.MCQ == nil || len(q.MCQ.CorrectAnswerKeys) != 1 {
		return false, 0
	}
	if len(a.SelectedKeys) != 1 {
		return false, 0
	}
	if a.SelectedKeys[0] != q.MCQ.CorrectAnswerKeys[0] {
		return false, 0
	}
	return true, float64(q.MaxPoints)
}

// scoreMCQMultiple: strict set equality, no partial credit.
func scoreMCQMultiple(q models.Question, a models.Answer) (bool, float64) {
	if q.MCQ == nil || len(q.MCQ.CorrectAnswerKeys) == 0 {
		return false, 0
	}
	if len(a.SelectedKeys) != len(q.MCQ.CorrectAnswerKeys) {
		return false, 0
	}
	correct := make(map[string]bool, len(q.MCQ.CorrectAnswerKeys))
	for _, k := range q.MCQ.CorrectAnswerKeys {
		correct[k] = true
	}
	for _, k := range a.SelectedKeys {
		if !correct[k] {
			return false, 0
		}
	}
	return true, float64(q.MaxPoints)
}

// scoreMatching: partial credit proportional to the correctly matched pairs.
func scoreMatching(q models.Question, a models.Answer) (bool, float64) {
	if q.Matching == nil || len(q.Matching.CorrectMatches) == 0 {
		return false, 0
	}
	expected := make(map[string]string, len(q.Matching.CorrectMatches))
	for _, m := range q.Matching.CorrectMatches {
		expected[m.Left] = m.Right
	}

	correct := 0
	for _, m := range a.Matches {
		if expected[m.Left] == m.Right {
			correct++
		}
	}

	total := len(q.Matching.CorrectMatches)
	points := roundPoints(float64(correct) / float64(total) * float64(q.MaxPoints))
	return correct == total, points
}

// scoreCompletion: each blank is correct iff the normalized text matches any
// accepted variant; points are proportional to the correct blanks.
func scoreCompletion(q models.Question, a models.Answer) (bool, float64) {
	if q.Completion == nil || len(q.Completion.Blanks) == 0 {
		return false, 0
	}

	correct := 0
	for _, blank := range q.Completion.Blanks {
		given, ok := a.BlankValues[blank]
		if !ok {
			continue
		}
		if matchesAny(given, q.Completion.CorrectAnswers[blank], q.Completion.CaseSensitive) {
			correct++
		}
	}

	total := len(q.Completion.Blanks)
	points := roundPoints(float64(correct) / float64(total) * float64(q.MaxPoints))
	return correct == total, points
}

func scoreSentenceCompletion(q models.Question, a models.Answer) (bool, float64) {
	if q.SentenceCompletion == nil || len(q.SentenceCompletion.Items) == 0 {
		return false, 0
	}

	correct := 0
	for i, item := range q.SentenceCompletion.Items {
		if i >= len(a.TextValues) {
			break
		}
		if matchesAny(a.TextValues[i], item.AcceptedAnswers, q.SentenceCompletion.CaseSensitive) {
			correct++
		}
	}

	total := len(q.SentenceCompletion.Items)
	points := roundPoints(float64(correct) / float64(total) * float64(q.MaxPoints))
	return correct == total, points
}

func scoreShortAnswer(q models.Question, a models.Answer) (bool, float64) {
	if q.ShortAnswer == nil || len(q.ShortAnswer.Items) == 0 {
		return false, 0
	}

	correct := 0
	for i, item := range q.ShortAnswer.Items {
		if i >= len(a.TextValues) {
			break
		}
		if matchesAny(a.TextValues[i], item.AcceptedAnswers, q.ShortAnswer.CaseSensitive) {
			correct++
		}
	}

	total := len(q.ShortAnswer.Items)
	points := roundPoints(float64(correct) / float64(total) * float64(q.MaxPoints))
	return correct == total, points
}

// scoreTrueFalse: proportional or all-or-nothing over statements, selected
// by the question's scoring mode. Unanswered statements count as wrong.
func scoreTrueFalse(q models.Question, a models.Answer) (bool, float64) {
	if q.TrueFalse == nil || len(q.TrueFalse.Statements) == 0 {
		return false, 0
	}

	correct := 0
	for i, st := range q.TrueFalse.Statements {
		if i >= len(a.BoolValues) || a.BoolValues[i] == nil {
			continue
		}
		if *a.BoolValues[i] == st.CorrectValue {
			correct++
		}
	}

	total := len(q.TrueFalse.Statements)
	allCorrect := correct == total

	if q.TrueFalse.ScoringMode == models.ScoringAllOrNothing {
		if allCorrect {
			return true, float64(q.MaxPoints)
		}
		return false, 0
	}

	points := roundPoints(float64(correct) / float64(total) * float64(q.MaxPoints))
	return allCorrect, points
}

// matchesAny reports whether the learner's text matches any accepted
// variant. Comparison trims whitespace and folds case unless the question
// is marked case sensitive.
func matchesAny(given string, accepted []string, caseSensitive bool) bool {
	g := strings.TrimSpace(given)
	if !caseSensitive {
		g = strings.ToLower(g)
	}
	for _, v := range accepted {
		want := strings.TrimSpace(v)
		if !caseSensitive {
			want = strings.ToLower(want)
		}
		if g == want {
			return true
		}
	}
	return false
}

// roundPoints keeps awarded points at two decimal places.
func roundPoints(p float64) float64 {
	return math.Round(p*100) / 100
}
