package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		{Prompt: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, CorrectLabel: LabelB},
		{Prompt: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid", "Berlin"}, CorrectLabel: LabelA},
	}
}

func readySession(t *testing.T, qs []Question) Session {
	t.Helper()
	s, err := Begin(NewSession(), "math", DifficultyEasy, len(qs))
	require.NoError(t, err)
	s, err = Load(s, qs)
	require.NoError(t, err)
	return s
}

func TestGradeScenarios(t *testing.T) {
	q := []Question{{Prompt: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, CorrectLabel: LabelB}}

	tests := []struct {
		name    string
		answers []string
		score   int
		total   int
	}{
		{name: "correct", answers: []string{"4"}, score: 1, total: 1},
		{name: "wrong", answers: []string{"3"}, score: 0, total: 1},
		{name: "unknown text", answers: []string{"four"}, score: 0, total: 1},
		{name: "no answers", answers: nil, score: 0, total: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, total := Grade(q, tt.answers)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	qs := sampleQuestions()
	answers := []string{"4", "Rome"}

	s1, t1 := Grade(qs, answers)
	s2, t2 := Grade(qs, answers)

	assert.Equal(t, s1, s2)
	assert.Equal(t, t1, t2)
	assert.Equal(t, 1, s1)
	assert.Equal(t, 2, t1)
}

func TestGradeNoMatchesScoresZero(t *testing.T) {
	score, total := Grade(sampleQuestions(), []string{"x", "y"})
	assert.Equal(t, 0, score)
	assert.Equal(t, 2, total)
}

func TestGradeOutOfRangeLabelIsIncorrect(t *testing.T) {
	qs := []Question{{Prompt: "p", Options: []string{"a", "b"}, CorrectLabel: LabelD}}
	score, total := Grade(qs, []string{"b"})
	assert.Equal(t, 0, score)
	assert.Equal(t, 1, total)
}

func TestGradeDuplicateOptionUsesFirstMatch(t *testing.T) {
	qs := []Question{{Prompt: "p", Options: []string{"same", "same", "c", "d"}, CorrectLabel: LabelB}}
	score, _ := Grade(qs, []string{"same"})
	assert.Equal(t, 0, score)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StateEmpty, s.State)

	s, err := Begin(s, "  geography ", DifficultyMedium, 2)
	require.NoError(t, err)
	assert.Equal(t, StateGenerating, s.State)
	assert.Equal(t, "geography", s.Topic)
	assert.Equal(t, 2, s.RequestedCount)

	_, err = Begin(s, "other", DifficultyHard, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition, "no second generation while one is in flight")

	s, err = Load(s, sampleQuestions())
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State)
	assert.Len(t, s.UserAnswers, len(s.Questions))

	s, err = SelectAnswer(s, 0, "4")
	require.NoError(t, err)
	s, err = SelectAnswer(s, 1, "Rome")
	require.NoError(t, err)
	s, err = SelectAnswer(s, 1, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", *s.UserAnswers[1], "selection overwrites the slot")

	s, notice, err := Submit(s)
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Equal(t, StateSubmitted, s.State)
	assert.True(t, s.Submitted)
	assert.Equal(t, 2, s.Score)
	assert.Equal(t, 2, s.Total)

	_, err = SelectAnswer(s, 0, "3")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = Reset()
	assert.Equal(t, StateEmpty, s.State)
	assert.Empty(t, s.Questions)
	assert.Empty(t, s.UserAnswers)
}

func TestSubmitWithMissingAnswersStaysReady(t *testing.T) {
	s := readySession(t, sampleQuestions()[:1])

	next, notice, err := Submit(s)

	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, NoticeMissingAnswers, notice.Code)
	assert.Equal(t, []int{0}, notice.Missing)
	assert.Equal(t, StateReady, next.State)
	assert.False(t, next.Submitted)
}

func TestSelectAnswerValidation(t *testing.T) {
	s := readySession(t, sampleQuestions())

	_, err := SelectAnswer(s, 2, "4")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = SelectAnswer(s, -1, "4")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = SelectAnswer(s, 0, "42")
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = SelectAnswer(NewSession(), 0, "4")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSelectAnswerDoesNotMutateInput(t *testing.T) {
	s := readySession(t, sampleQuestions())

	next, err := SelectAnswer(s, 0, "4")
	require.NoError(t, err)

	assert.Nil(t, s.UserAnswers[0])
	require.NotNil(t, next.UserAnswers[0])
	assert.Equal(t, "4", *next.UserAnswers[0])
}

func TestBeginValidation(t *testing.T) {
	_, err := Begin(NewSession(), "   ", DifficultyEasy, 3)
	assert.ErrorIs(t, err, ErrEmptyTopic)

	_, err = Begin(NewSession(), "go", DifficultyEasy, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestBeginReplacesSubmittedAttempt(t *testing.T) {
	s := readySession(t, sampleQuestions()[:1])
	s, _ = SelectAnswer(s, 0, "4")
	s, _, _ = Submit(s)

	next, err := Begin(s, "history", DifficultyHard, 5)

	require.NoError(t, err)
	assert.Equal(t, StateGenerating, next.State)
	assert.Empty(t, next.Questions)
	assert.Zero(t, next.Score)
}

func TestReview(t *testing.T) {
	s := readySession(t, sampleQuestions())
	_, err := Review(s)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, _ = SelectAnswer(s, 0, "3")
	s, _ = SelectAnswer(s, 1, "Paris")
	s, _, _ = Submit(s)

	items, err := Review(s)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ReviewItem{
		Number: 1, Prompt: "What is 2+2?", YourAnswer: "3",
		CorrectAnswer: "4", CorrectLabel: LabelB, Correct: false,
	}, items[0])
	assert.True(t, items[1].Correct)
	assert.Equal(t, "Paris", items[1].CorrectAnswer)
}

func TestCheckShortfall(t *testing.T) {
	long := make([]byte, MinResponseLength)
	for i := range long {
		long[i] = 'x'
	}

	w := CheckShortfall(string(long), 3, 2)
	require.NotNil(t, w)
	assert.Equal(t, WarningPartialResponse, w.Code)
	assert.Contains(t, w.Message, "Got 2 questions instead of 3")

	w = CheckShortfall("short", 1, 1)
	require.NotNil(t, w)
	assert.Equal(t, WarningShortResponse, w.Code)

	assert.Nil(t, CheckShortfall(string(long), 3, 3))
}

func TestBuildPromptMentionsParameters(t *testing.T) {
	p := BuildPrompt("Photosynthesis", 4, DifficultyHard)

	assert.Contains(t, p, `Generate 4 multiple choice questions on the topic "Photosynthesis"`)
	assert.Contains(t, p, "hard level")
	assert.Contains(t, p, "Answer: <A/B/C/D>")
	assert.Contains(t, p, "Continue for all 4 questions.")
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("Medium")
	require.NoError(t, err)
	assert.Equal(t, DifficultyMedium, d)

	_, err = ParseDifficulty("insane")
	assert.Error(t, err)
}

func TestLabelIndex(t *testing.T) {
	idx, ok := LabelC.Index()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = Label("E").Index()
	assert.False(t, ok)
	assert.Equal(t, LabelD, LabelAt(3))
}

func TestRedactedHidesAnswersUntilSubmitted(t *testing.T) {
	s := readySession(t, sampleQuestions())

	red := s.Redacted()
	for _, q := range red.Questions {
		assert.Empty(t, q.CorrectLabel)
	}
	assert.Equal(t, LabelB, s.Questions[0].CorrectLabel, "original is untouched")

	s, _ = SelectAnswer(s, 0, "4")
	s, _ = SelectAnswer(s, 1, "Paris")
	s, _, _ = Submit(s)
	assert.Equal(t, LabelB, s.Redacted().Questions[0].CorrectLabel)
}
