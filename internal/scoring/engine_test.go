package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizcraft/generation-service/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestScoreMCQ(t *testing.T) {
	q := models.Question{
		QuestionID: "q1",
		Type:       models.MCQ,
		MaxPoints:  3,
		MCQ: &models.MCQPayload{
			Options:           []models.Option{{Key: "a"}, {Key: "b"}, {Key: "c"}},
			CorrectAnswerKeys: []string{"b"},
		},
	}

	t.Run("correct selection", func(t *testing.T) {
		r := Score(q, models.Answer{QuestionID: "q1", SelectedKeys: []string{"b"}})
		assert.True(t, r.IsCorrect)
		assert.Equal(t, 3.0, r.PointsAwarded)
		assert.Equal(t, 3, r.MaxPoints)
	})

	t.Run("wrong selection", func(t *testing.T) {
		r := Score(q, models.Answer{QuestionID: "q1", SelectedKeys: []string{"a"}})
		assert.False(t, r.IsCorrect)
		assert.Zero(t, r.PointsAwarded)
	})

	t.Run("multiple keys never correct", func(t *testing.T) {
		r := Score(q, models.Answer{QuestionID: "q1", SelectedKeys: []string{"a", "b"}})
		assert.False(t, r.IsCorrect)
		assert.Zero(t, r.PointsAwarded)
	})

	t.Run("skipped question scores zero", func(t *testing.T) {
		r := Score(q, models.Answer{QuestionID: "q1"})
		assert.False(t, r.IsCorrect)
		assert.Zero(t, r.PointsAwarded)
	})
}

func TestScoreMCQMultiple(t *testing.T) {
	q := models.Question{
		QuestionID: "q1",
		Type:       models.MCQMultiple,
		MaxPoints:  4,
		MCQ: &models.MCQPayload{
			Options:           []models.Option{{Key: "a"}, {Key: "b"}, {Key: "c"}, {Key: "d"}},
			CorrectAnswerKeys: []string{"a", "c"},
		},
	}

	t.Run("exact set in any order", func(t *testing.T) {
		r := Score(q, models.Answer{SelectedKeys: []string{"c", "a"}})
		assert.True(t, r.IsCorrect)
		assert.Equal(t, 4.0, r.PointsAwarded)
	})

	t.Run("no partial credit for subset", func(t *testing.T) {
		r := Score(q, models.Answer{SelectedKeys: []string{"a"}})
		assert.False(t, r.IsCorrect)
		assert.Zero(t, r.PointsAwarded)
	})

	t.Run("no credit for superset", func(t *testing.T) {
		r := Score(q, models.Answer{SelectedKeys: []string{"a", "c", "d"}})
		assert.False(t, r.IsCorrect)
		assert.Zero(t, r.PointsAwarded)
	})
}

func TestScoreMatching(t *testing.T) {
	q := models.Question{
		QuestionID: "q1",
		Type:       models.Matching,
		MaxPoints:  3,
		Matching: &models.MatchingPayload{
			LeftItems:    []models.Option{{Key: "l1"}, {Key: "l2"}, {Key: "l3"}},
			RightOptions: []models.Option{{Key: "r1"}, {Key: "r2"}, {Key: "r3"}},
			CorrectMatches: []models.MatchPair{
				{Left: "l1", Right: "r1"},
				{Left: "l2", Right: "r2"},
				{Left: "l3", Right: "r3"},
			},
		},
	}

	t.Run("two of three pairs earns two points", func(t *testing.T) {
		r := Score(q, models.Answer{Matches: []models.MatchPair{
			{Left: "l1", Right: "r1"},
			{Left: "l2", Right: "r2"},
			{Left: "l3", Right: "r1"},
		}})
		assert.False(t, r.IsCorrect)
		assert.Equal(t, 2.0, r.PointsAwarded)
	})

	t.Run("all pairs correct", func(t *testing.T) {
		r := Score(q, models.Answer{Matches: []models.MatchPair{
			{Left: "l3", Right: "r3"},
			{Left: "l1", Right: "r1"},
			{Left: "l2", Right: "r2"},
		}})
		assert.True(t, r.IsCorrect)
		assert.Equal(t, 3.0, r.PointsAwarded)
	})
}

func TestScoreCompletion(t *testing.T) {
	q := models.Question{
		QuestionID: "q1",
		Type:       models.Completion,
		MaxPoints:  2,
		Completion: &models.CompletionPayload{
			Template: "Water boils at [1] degrees and freezes at [2].",
			Blanks:   []string{"1", "2"},
			CorrectAnswers: map[string][]string{
				"1": {"100", "one hundred"},
				"2": {"0", "zero"},
			},
		},
	}

	t.Run("variant and case folding accepted", func(t *testing.T) {
		r := Score(q, models.Answer{BlankValues: map[string]string{"1": " One Hundred ", "2": "0"}})
		assert.True(t, r.IsCorrect)
		assert.Equal(t, 2.0, r.PointsAwarded)
	})

	t.Run("one blank wrong gives proportional credit", func(t *testing.T) {
		r := Score(q, models.Answer{BlankValues: map[string]string{"1": "100", "2": "32"}})
		assert.False(t, r.IsCorrect)
		assert.Equal(t, 1.0, r.PointsAwarded)
	})

	t.Run("case sensitive comparison", func(t *testing.T) {
		cs := q
		cs.Completion = &models.CompletionPayload{
			Template:       "[1]",
			Blanks:         []string{"1"},
			CorrectAnswers: map[string][]string{"1": {"Paris"}},
			CaseSensitive:  true,
		}
		r := Score(cs, models.Answer{BlankValues: map[string]string{"1": "paris"}})
		assert.False(t, r.IsCorrect)
	})
}

func TestScoreShortAnswer(t *testing.T) {
	q := models.Question{
		QuestionID: "q1",
		Type:       models.ShortAnswer,
		MaxPoints:  4,
		ShortAnswer: &models.ShortAnswerPayload{
			Items: []models.ShortAnswerItem{
				{Prompt: "Capital of France?", AcceptedAnswers: []string{"Paris"}},
				{Prompt: "Capital of Italy?", AcceptedAnswers: []string{"Rome", "Roma"}},
			},
		},
	}

	r := Score(q, models.Answer{TextValues: []string{"paris", "Berlin"}})
	assert.False(t, r.IsCorrect)
	assert.Equal(t, 2.0, r.PointsAwarded)

	r = Score(q, models.Answer{TextValues: []string{"Paris", "roma"}})
	assert.True(t, r.IsCorrect)
	assert.Equal(t, 4.0, r.PointsAwarded)
}

func TestScoreTrueFalse(t *testing.T) {
	statements := []models.Statement{
		{Text: "s1", CorrectValue: true},
		{Text: "s2", CorrectValue: false},
		{Text: "s3", CorrectValue: true},
		{Text: "s4", CorrectValue: false},
	}

	t.Run("partial mode three of four", func(t *testing.T) {
		q := models.Question{
			Type:      models.TrueFalseMultiple,
			MaxPoints: 4,
			TrueFalse: &models.TrueFalsePayload{Statements: statements, ScoringMode: models.ScoringPartial},
		}
		r := Score(q, models.Answer{BoolValues: []*bool{boolPtr(true), boolPtr(false), boolPtr(true), boolPtr(true)}})
		assert.False(t, r.IsCorrect)
		assert.Equal(t, 3.0, r.PointsAwarded)
	})

	t.Run("all or nothing three of four", func(t *testing.T) {
		q := models.Question{
			Type:      models.TrueFalseMultiple,
			MaxPoints: 4,
			TrueFalse: &models.TrueFalsePayload{Statements: statements, ScoringMode: models.ScoringAllOrNothing},
		}
		r := Score(q, models.Answer{BoolValues: []*bool{boolPtr(true), boolPtr(false), boolPtr(true), boolPtr(true)}})
		assert.False(t, r.IsCorrect)
		assert.Zero(t, r.PointsAwarded)
	})

	t.Run("nil entry counts as wrong", func(t *testing.T) {
		q := models.Question{
			Type:      models.TrueFalseMultiple,
			MaxPoints: 4,
			TrueFalse: &models.TrueFalsePayload{Statements: statements, ScoringMode: models.ScoringPartial},
		}
		r := Score(q, models.Answer{BoolValues: []*bool{boolPtr(true), nil, boolPtr(true), boolPtr(false)}})
		assert.False(t, r.IsCorrect)
		assert.Equal(t, 3.0, r.PointsAwarded)
	})
}

func TestScoreEssayRequiresGrading(t *testing.T) {
	q := models.Question{
		QuestionID: "q1",
		Type:       models.Essay,
		MaxPoints:  20,
		Essay:      &models.EssayPayload{Rubric: "clarity and depth"},
	}

	r := Score(q, models.Answer{EssayText: "an answer"})
	assert.True(t, r.RequiresGrading)
	assert.False(t, r.IsCorrect)
	assert.Zero(t, r.PointsAwarded)
	assert.Equal(t, 20, r.MaxPoints)
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	q := models.Question{
		Type:      models.Matching,
		MaxPoints: 1,
		Matching: &models.MatchingPayload{
			CorrectMatches: []models.MatchPair{
				{Left: "a", Right: "1"},
				{Left: "b", Right: "2"},
				{Left: "c", Right: "3"},
			},
		},
	}
	r := Score(q, models.Answer{Matches: []models.MatchPair{{Left: "a", Right: "1"}}})
	assert.Equal(t, 0.33, r.PointsAwarded)
}
