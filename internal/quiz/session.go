package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateEmpty      State = "EMPTY"
	StateGenerating State = "GENERATING"
	StateReady      State = "READY"
	StateSubmitted  State = "SUBMITTED"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrIndexOutOfRange   = errors.New("question index out of range")
	ErrUnknownOption     = errors.New("option is not one of the question's options")
	ErrEmptyTopic        = errors.New("topic is required")
	ErrInvalidCount      = errors.New("question count must be at least 1")
)

// Session is one user's quiz attempt, from generation through review.
// It is a plain value: every operation takes a Session and returns the next one.
type Session struct {
	State          State      `json:"state"`
	Topic          string     `json:"topic,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	RequestedCount int        `json:"requested_count,omitempty"`
	Questions      []Question `json:"questions"`
	UserAnswers    []*string  `json:"user_answers"`
	Submitted      bool       `json:"submitted"`
	Score          int        `json:"score"`
	Total          int        `json:"total"`
}

// Notice is a non-fatal message reported back to the caller.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Missing []int  `json:"missing,omitempty"`
}

const NoticeMissingAnswers = "missing_answers"

// NewSession returns an empty session.
func NewSession() Session {
	return Session{
		State:       StateEmpty,
		Questions:   []Question{},
		UserAnswers: []*string{},
	}
}

// Redacted hides the correct labels until the session has been submitted, so the
// answers cannot be read off the questions while the quiz is open.
func (s Session) Redacted() Session {
	if s.State == StateSubmitted {
		return s
	}
	qs := make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.CorrectLabel = ""
		qs[i] = q
	}
	s.Questions = qs
	return s
}

// Reset discards the attempt and returns an empty session.
func Reset() Session {
	return NewSession()
}

func transitionError(from State, op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, from)
}

// Begin starts a new attempt. A previous READY or SUBMITTED attempt is replaced;
// a generation already in flight is not.
func Begin(s Session, topic string, difficulty Difficulty, count int) (Session, error) {
	if s.State == StateGenerating {
		return s, transitionError(s.State, "start a quiz")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return s, ErrEmptyTopic
	}
	if count < 1 {
		return s, ErrInvalidCount
	}

	next := NewSession()
	next.State = StateGenerating
	next.Topic = topic
	next.Difficulty = difficulty
	next.RequestedCount = count
	return next, nil
}

// Load moves a generating session to READY with the given questions and one unset
// answer slot per question.
func Load(s Session, questions []Question) (Session, error) {
	if s.State != StateGenerating {
		return s, transitionError(s.State, "load questions")
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)

	s.State = StateReady
	s.Questions = qs
	s.UserAnswers = make([]*string, len(qs))
	return s, nil
}

// SelectAnswer overwrites the answer slot at index. It never checks correctness.
func SelectAnswer(s Session, index int, option string) (Session, error) {
	if s.State != StateReady {
		return s, transitionError(s.State, "select an answer")
	}
	if index < 0 || index >= len(s.Questions) {
		return s, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if !s.Questions[index].HasOption(option) {
		return s, ErrUnknownOption
	}

	answers := make([]*string, len(s.UserAnswers))
	copy(answers, s.UserAnswers)
	chosen := option
	answers[index] = &chosen
	s.UserAnswers = answers
	return s, nil
}

// Submit grades a READY session. When any slot is unset the session is returned
// unchanged together with a missing-answers notice.
func Submit(s Session) (Session, *Notice, error) {
	if s.State != StateReady {
		return s, nil, transitionError(s.State, "submit")
	}

	var missing []int
	answers := make([]string, len(s.UserAnswers))
	for i, a := range s.UserAnswers {
		if a == nil {
			missing = append(missing, i)
			continue
		}
		answers[i] = *a
	}
	if len(missing) > 0 {
		return s, &Notice{
			Code:    NoticeMissingAnswers,
			Message: "Please answer all questions before submitting.",
			Missing: missing,
		}, nil
	}

	s.Score, s.Total = Grade(s.Questions, answers)
	s.Submitted = true
	s.State = StateSubmitted
	return s, nil, nil
}

// ReviewItem pairs the chosen answer with the correct option for one question.
type ReviewItem struct {
	Number        int    `json:"number"`
	Prompt        string `json:"prompt"`
	YourAnswer    string `json:"your_answer"`
	CorrectAnswer string `json:"correct_answer"`
	CorrectLabel  Label  `json:"correct_label"`
	Correct       bool   `json:"correct"`
}

// Review lists every question of a submitted session with both answers.
func Review(s Session) ([]ReviewItem, error) {
	if s.State != StateSubmitted {
		return nil, transitionError(s.State, "review")
	}
	items := make([]ReviewItem, 0, len(s.Questions))
	for i, q := range s.Questions {
		item := ReviewItem{
			Number:       i + 1,
			Prompt:       q.Prompt,
			CorrectLabel: q.CorrectLabel,
		}
		if i < len(s.UserAnswers) && s.UserAnswers[i] != nil {
			item.YourAnswer = *s.UserAnswers[i]
		}
		item.CorrectAnswer, _ = q.CorrectOption()
		if label, ok := q.LabelOf(item.YourAnswer); ok && q.Valid() {
			item.Correct = label == q.CorrectLabel
		}
		items = append(items, item)
	}
	return items, nil
}
