package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/response"
	"github.com/edututor/edututor-backend/internal/service"
	ws "github.com/edututor/edututor-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a student's quiz session over a WebSocket: answers and
// submissions go in, session snapshots and grades come out.
type WSHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream?token=
// Sends the current session on connect, then answers each action with an event.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	email := claims.Email()
	wsLog := h.log.With().Str("email", email).Logger()
	wsLog.Info().Msg("Quiz stream connected")

	// The connection outlives the upgrade request, so operations run on a
	// context detached from it.
	ctx := context.WithoutCancel(c.Request.Context())

	sess, err := h.quizService.Current(ctx, email)
	if err != nil {
		_ = ws.WriteError(conn, string(response.ErrUpstream), err.Error())
		return
	}
	if err := ws.WriteTyped(conn, ws.SessionResponse{Event: ws.EventSession, Session: sess.Redacted()}); err != nil {
		return
	}

	for {
		data, err := ws.ReadMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if err := h.dispatch(ctx, conn, email, data); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, closing stream")
			return
		}
	}
}

// dispatch handles one client frame. It only returns write errors; action failures
// are reported to the client as error events.
func (h *WSHandler) dispatch(ctx context.Context, conn *websocket.Conn, email string, data []byte) error {
	var env ws.RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed message")
	}

	switch env.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Option == "" {
			return ws.WriteError(conn, string(response.ErrValidation), "index and option are required")
		}
		sess, err := h.quizService.SelectAnswer(ctx, email, req.Index, req.Option)
		if err != nil {
			return writeServiceError(conn, err)
		}
		return ws.WriteTyped(conn, ws.SessionResponse{Event: ws.EventSession, Session: sess.Redacted()})

	case ws.ActionSubmit:
		resp, err := h.quizService.Submit(ctx, email)
		if err != nil {
			return writeServiceError(conn, err)
		}
		if resp.Notice != nil {
			return ws.WriteTyped(conn, ws.NoticeResponse{Event: ws.EventNotice, Notice: resp.Notice})
		}
		return ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, Session: resp.Session, Result: resp.Result})

	case ws.ActionReset:
		sess, err := h.quizService.Reset(ctx, email)
		if err != nil {
			return writeServiceError(conn, err)
		}
		return ws.WriteTyped(conn, ws.SessionResponse{Event: ws.EventSession, Session: sess})

	default:
		return ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(env.Action))
	}
}

func writeServiceError(conn *websocket.Conn, err error) error {
	kind := service.KindOf(err)
	_, code := statusFor(kind)
	msg := err.Error()
	if kind == "" || kind == service.KindInternal {
		msg = response.GetMessage(response.ErrInternal)
	}
	return ws.WriteError(conn, string(code), msg)
}
