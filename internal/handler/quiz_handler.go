package handler

import (
	"net/http"
	"strconv"

	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/response"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/edututor/edututor-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// QuizHandler exposes the student's quiz session.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// GetSession godoc
// GET /api/v1/quiz/session
func (h *QuizHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sess, err := h.quizService.Current(c.Request.Context(), claims.Email())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess.Redacted()})
}

// StartQuiz godoc
// POST /api/v1/quiz/session
// Generates a new quiz. Blocks until the LLM answers. A short parse comes back as
// 200 with a warning and the raw text.
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.quizService.Start(c.Request.Context(), claims.Email(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	resp.Session = resp.Session.Redacted()
	response.Success(c, http.StatusOK, resp)
}

// SelectAnswer godoc
// PUT /api/v1/quiz/session/answers/:index
func (h *QuizHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.quizService.SelectAnswer(c.Request.Context(), claims.Email(), index, req.Option)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess.Redacted()})
}

// Submit godoc
// POST /api/v1/quiz/session/submit
// Unanswered questions are not an error: the response is 200 with a notice and the
// session stays READY.
func (h *QuizHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)

	resp, err := h.quizService.Submit(c.Request.Context(), claims.Email())
	if err != nil {
		respondError(c, err)
		return
	}
	resp.Session = resp.Session.Redacted()
	response.Success(c, http.StatusOK, resp)
}

// Reset godoc
// DELETE /api/v1/quiz/session
func (h *QuizHandler) Reset(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sess, err := h.quizService.Reset(c.Request.Context(), claims.Email())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess.Redacted()})
}

// Review godoc
// GET /api/v1/quiz/session/review
func (h *QuizHandler) Review(c *gin.Context) {
	claims := middleware.GetClaims(c)

	items, err := h.quizService.Review(c.Request.Context(), claims.Email())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}
