package model

import "github.com/edututor/edututor-backend/internal/quiz"

// StartQuizRequest asks for a freshly generated quiz.
// Count is optional; zero means the configured default.
type StartQuizRequest struct {
	Topic      string `json:"topic" binding:"required,min=1,max=200"`
	Difficulty string `json:"difficulty" binding:"required,difficulty"`
	Count      int    `json:"count" binding:"omitempty,min=1"`
}

// SelectAnswerRequest chooses one option text for a question.
type SelectAnswerRequest struct {
	Option string `json:"option" binding:"required,max=2000"`
}

// StartQuizResponse carries the new session and, when parsing fell short, a warning
// with the raw completion so the user can judge it.
type StartQuizResponse struct {
	Session quiz.Session  `json:"session"`
	Warning *quiz.Warning `json:"warning,omitempty"`
	RawText string        `json:"raw_text,omitempty"`
}

// SubmitQuizResponse carries the session after submission. Exactly one of Notice
// (answers missing, still READY) or Result (graded and stored) is set.
type SubmitQuizResponse struct {
	Session quiz.Session `json:"session"`
	Notice  *quiz.Notice `json:"notice,omitempty"`
	Result  *QuizResult  `json:"result,omitempty"`
}
