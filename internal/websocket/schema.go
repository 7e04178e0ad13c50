package websocket

import (
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/quiz"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionReset  Action = "reset"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest selects an option for one question.
type AnswerRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
	Option string `json:"option"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSession Event = "session"
	EventGraded  Event = "graded"
	EventNotice  Event = "notice"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// SessionResponse carries the session after any change, and once on connect.
type SessionResponse struct {
	Event   Event        `json:"event"`
	Session quiz.Session `json:"session"`
}

// GradedResponse is sent after a successful submission.
type GradedResponse struct {
	Event   Event             `json:"event"`
	Session quiz.Session      `json:"session"`
	Result  *model.QuizResult `json:"result"`
}

// NoticeResponse reports a non-fatal problem, such as unanswered questions.
type NoticeResponse struct {
	Event  Event        `json:"event"`
	Notice *quiz.Notice `json:"notice"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
