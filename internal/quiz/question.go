package quiz

import (
	"fmt"
	"strings"
)

// Label identifies an option by its position: A is the first option, D the fourth.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// OptionsPerQuestion is the number of options a well-formed question carries.
const OptionsPerQuestion = 4

// LabelAt returns the label for the option at index i.
func LabelAt(i int) Label {
	return Label(rune('A' + i))
}

// Index returns the zero-based option position the label refers to.
func (l Label) Index() (int, bool) {
	if len(l) != 1 || l[0] < 'A' || l[0] > 'D' {
		return 0, false
	}
	return int(l[0] - 'A'), true
}

// Difficulty is the requested difficulty level of a generated quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium or hard in any letter case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Question is one parsed multiple-choice question.
// Options are kept in document order; position i carries LabelAt(i).
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectLabel Label    `json:"correct_label,omitempty"`
}

// Valid reports whether CorrectLabel points at one of the recorded options.
func (q Question) Valid() bool {
	idx, ok := q.CorrectLabel.Index()
	return ok && idx < len(q.Options)
}

// CorrectOption returns the text of the correct option, if the label is in range.
func (q Question) CorrectOption() (string, bool) {
	if !q.Valid() {
		return "", false
	}
	idx, _ := q.CorrectLabel.Index()
	return q.Options[idx], true
}

// LabelOf resolves an option text to its positional label using the first exact match.
func (q Question) LabelOf(option string) (Label, bool) {
	for i, o := range q.Options {
		if o == option {
			return LabelAt(i), true
		}
	}
	return "", false
}

// HasOption reports whether option is one of the question's option texts.
func (q Question) HasOption(option string) bool {
	_, ok := q.LabelOf(option)
	return ok
}

// Usable drops questions whose correct label does not index an option.
// Order of the remaining questions is preserved.
func Usable(questions []Question) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.Valid() {
			out = append(out, q)
		}
	}
	return out
}
