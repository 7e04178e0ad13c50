package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/handler"
	"github.com/edututor/edututor-backend/internal/llm"
	"github.com/edututor/edututor-backend/internal/metrics"
	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/repository"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/edututor/edututor-backend/internal/validator"
	ws "github.com/edututor/edututor-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoQuestions = `Q1. What is 2+2?
A) 3
B) 4
C) 5
D) 6
Answer: B

Q2. Capital of France?
A) Paris
B) Rome
C) Madrid
D) Berlin
Answer: A
`

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(context.Context, llm.Request) (string, error) { return g.text, g.err }
func (g stubGenerator) Ping(context.Context) error                            { return g.err }
func (g stubGenerator) Name() string                                          { return "stub" }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type testApp struct {
	t      *testing.T
	engine *gin.Engine
	cfg    *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:               gin.TestMode,
		StoreDriver:           config.StoreDriverMemory,
		JWTSecret:             "router-test-secret",
		JWTExpiry:             time.Hour,
		BcryptCost:            4,
		LLMProvider:           config.LLMProviderOpenAI,
		OpenAIAPIKey:          "sk-test",
		LLMTimeout:            time.Second,
		GenerateRatePerMinute: 1000,
		AuthRatePerMinute:     1000,
		DefaultQuestionCount:  2,
		MaxQuestionCount:      10,
	}
}

func newTestApp(t *testing.T, cfg *config.Config, gen llm.Generator) *testApp {
	t.Helper()
	validator.Setup()
	log := zerolog.Nop()

	store := repository.NewMetadataStore(repository.NewMemoryBackend())
	sessions := repository.NewMemorySessionStore()
	blocklist := repository.NewMemoryTokenBlocklist()
	m := metrics.New(prometheus.NewRegistry())

	authService := service.NewAuthService(cfg, store, blocklist, log)
	quizService := service.NewQuizService(cfg, gen, sessions, store, m, log)
	handlers := &Handlers{
		Auth:   handler.NewAuthHandler(authService, service.NewOAuthService(cfg, log), quizService),
		Quiz:   handler.NewQuizHandler(quizService),
		Result: handler.NewResultHandler(service.NewResultService(store)),
		WS:     handler.NewWSHandler(quizService, log, nil),
		System: handler.NewSystemHandler(store, sessions, gen, log),
	}
	limiters := &Limiters{
		Auth:     middleware.NewRateLimiter(cfg.AuthRatePerMinute),
		Generate: middleware.NewRateLimiter(cfg.GenerateRatePerMinute),
	}
	return &testApp{t: t, engine: SetupRouter(authService, handlers, limiters, m, cfg, log), cfg: cfg}
}

func (a *testApp) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

// signupAndLogin creates an account and returns a bearer token for it.
func (a *testApp) signupAndLogin(email string, role model.Role) string {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/signup", "", model.SignupRequest{
		Email: email, Password: "secret123", Name: "Test User", Role: role,
	})
	require.Equal(a.t, http.StatusCreated, status, "signup: %+v", env.Error)

	status, env = a.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: email, Password: "secret123"})
	require.Equal(a.t, http.StatusOK, status, "login: %+v", env.Error)

	var resp model.LoginResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})

	status, env := app.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decode[map[string]any](t, env.Data)["status"])

	status, env = app.do(http.MethodGet, "/health?deep=1", "", nil)
	assert.Equal(t, http.StatusOK, status)
	body := decode[map[string]any](t, env.Data)
	assert.Equal(t, "stub", body["llm_provider"])
}

func TestDeepHealthReportsFailingProvider(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{err: errors.New("invalid api key")})

	status, env := app.do(http.MethodGet, "/health?deep=1", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	body := decode[map[string]any](t, env.Data)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "fail", checks["llm"].(map[string]any)["status"])
	assert.Equal(t, "ok", checks["store"].(map[string]any)["status"])
}

func TestStudentQuizFlow(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("Student@Example.com", model.RoleStudent)

	status, env := app.do(http.MethodGet, "/api/v1/quiz/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"state":"EMPTY"`)

	status, env = app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{
		Topic: "Arithmetic", Difficulty: "Easy", Count: 2,
	})
	require.Equal(t, http.StatusOK, status, "start: %+v", env.Error)
	assert.Contains(t, string(env.Data), `"state":"READY"`)
	assert.NotContains(t, string(env.Data), "correct_label", "answers must stay hidden before submission")
	assert.NotContains(t, string(env.Data), "warning")

	status, _ = app.do(http.MethodPut, "/api/v1/quiz/session/answers/0", token, model.SelectAnswerRequest{Option: "4"})
	require.Equal(t, http.StatusOK, status)
	status, _ = app.do(http.MethodPut, "/api/v1/quiz/session/answers/1", token, model.SelectAnswerRequest{Option: "Rome"})
	require.Equal(t, http.StatusOK, status)

	status, env = app.do(http.MethodPost, "/api/v1/quiz/session/submit", token, nil)
	require.Equal(t, http.StatusOK, status, "submit: %+v", env.Error)
	submitted := decode[model.SubmitQuizResponse](t, env.Data)
	require.NotNil(t, submitted.Result)
	assert.Nil(t, submitted.Notice)
	assert.Equal(t, 1, submitted.Result.Score)
	assert.Equal(t, 2, submitted.Result.Total)
	assert.Equal(t, "student@example.com", submitted.Result.OwnerEmail)
	assert.Equal(t, "Arithmetic", submitted.Result.Topic)
	assert.Contains(t, string(env.Data), `"correct_label":"B"`)

	status, env = app.do(http.MethodGet, "/api/v1/quiz/session/review", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"correct_answer":"Paris"`)

	status, env = app.do(http.MethodGet, "/api/v1/results/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	results := decode[struct {
		Results []model.QuizResult `json:"results"`
	}](t, env.Data)
	require.Len(t, results.Results, 1)
	assert.Equal(t, 1, results.Results[0].Score)

	// Answers are frozen once graded.
	status, env = app.do(http.MethodPut, "/api/v1/quiz/session/answers/0", token, model.SelectAnswerRequest{Option: "3"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_SESSION_STATE", env.Error.Code)

	status, env = app.do(http.MethodDelete, "/api/v1/quiz/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"state":"EMPTY"`)
}

func TestSubmitWithMissingAnswersReturnsNotice(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	status, _ := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Mixed", Difficulty: "medium"})
	require.Equal(t, http.StatusOK, status)
	status, _ = app.do(http.MethodPut, "/api/v1/quiz/session/answers/1", token, model.SelectAnswerRequest{Option: "Paris"})
	require.Equal(t, http.StatusOK, status)

	status, env := app.do(http.MethodPost, "/api/v1/quiz/session/submit", token, nil)
	require.Equal(t, http.StatusOK, status)
	resp := decode[model.SubmitQuizResponse](t, env.Data)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, []int{0}, resp.Notice.Missing)
	assert.Nil(t, resp.Result)
	assert.Equal(t, "READY", string(resp.Session.State))

	status, env = app.do(http.MethodGet, "/api/v1/results/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"results":[]}`, string(env.Data))
}

func TestSelectAnswerRejectsBadInput(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)
	status, _ := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Mixed", Difficulty: "hard"})
	require.Equal(t, http.StatusOK, status)

	status, env := app.do(http.MethodPut, "/api/v1/quiz/session/answers/x", token, model.SelectAnswerRequest{Option: "4"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	status, env = app.do(http.MethodPut, "/api/v1/quiz/session/answers/7", token, model.SelectAnswerRequest{Option: "4"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, env = app.do(http.MethodPut, "/api/v1/quiz/session/answers/0", token, model.SelectAnswerRequest{Option: "42"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestStartQuizValidation(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	status, env := app.do(http.MethodPost, "/api/v1/quiz/session", token, map[string]any{"topic": "Math", "difficulty": "impossible"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "difficulty")

	status, env = app.do(http.MethodPost, "/api/v1/quiz/session", token, map[string]any{"difficulty": "easy"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error.Fields, "topic")
}

func TestStartQuizWithoutProviderSettings(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	app := newTestApp(t, cfg, stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	status, env := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Math", Difficulty: "easy"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)
	assert.Contains(t, env.Error.Message, "OPENAI_API_KEY")
}

func TestStartQuizUpstreamFailure(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{err: errors.New("connection refused")})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	status, env := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Math", Difficulty: "easy"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)

	status, env = app.do(http.MethodGet, "/api/v1/quiz/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"state":"EMPTY"`)
}

func TestStartQuizShortfallCarriesWarning(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	status, env := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Math", Difficulty: "easy", Count: 5})
	require.Equal(t, http.StatusOK, status)
	resp := decode[model.StartQuizResponse](t, env.Data)
	require.NotNil(t, resp.Warning)
	assert.Len(t, resp.Session.Questions, 2)
	assert.Equal(t, twoQuestions, resp.RawText)
}

func TestRoleRestrictions(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	student := app.signupAndLogin("student@example.com", model.RoleStudent)
	educator := app.signupAndLogin("educator@example.com", model.RoleEducator)

	status, env := app.do(http.MethodGet, "/api/v1/quiz/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_REQUIRED", env.Error.Code)

	status, env = app.do(http.MethodGet, "/api/v1/quiz/session", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", env.Error.Code)

	status, env = app.do(http.MethodGet, "/api/v1/quiz/session", educator, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "STUDENT_ACCESS_ONLY", env.Error.Code)

	status, env = app.do(http.MethodGet, "/api/v1/results", student, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "EDUCATOR_ACCESS_ONLY", env.Error.Code)
}

func TestEducatorListsResults(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	educator := app.signupAndLogin("educator@example.com", model.RoleEducator)

	for _, email := range []string{"ann@example.com", "bob@example.com"} {
		token := app.signupAndLogin(email, model.RoleStudent)
		status, _ := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Math", Difficulty: "easy"})
		require.Equal(t, http.StatusOK, status)
		app.do(http.MethodPut, "/api/v1/quiz/session/answers/0", token, model.SelectAnswerRequest{Option: "4"})
		app.do(http.MethodPut, "/api/v1/quiz/session/answers/1", token, model.SelectAnswerRequest{Option: "Paris"})
		status, _ = app.do(http.MethodPost, "/api/v1/quiz/session/submit", token, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, env := app.do(http.MethodGet, "/api/v1/results", educator, nil)
	require.Equal(t, http.StatusOK, status)
	all := decode[struct {
		Results []model.QuizResult `json:"results"`
	}](t, env.Data)
	assert.Len(t, all.Results, 2)

	status, env = app.do(http.MethodGet, "/api/v1/results?email=BOB@example.com", educator, nil)
	require.Equal(t, http.StatusOK, status)
	filtered := decode[struct {
		Results []model.QuizResult `json:"results"`
	}](t, env.Data)
	require.Len(t, filtered.Results, 1)
	assert.Equal(t, "bob@example.com", filtered.Results[0].OwnerEmail)
}

func TestSignupAndLoginErrors(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	app.signupAndLogin("student@example.com", model.RoleStudent)

	status, env := app.do(http.MethodPost, "/api/v1/auth/signup", "", model.SignupRequest{
		Email: "STUDENT@example.com", Password: "another1", Name: "Dup",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = app.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "student@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	status, env = app.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	status, env = app.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"email": "bad", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "email")
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	status, env := app.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"email":"student@example.com"`)
	assert.NotContains(t, string(env.Data), "password")

	status, _ = app.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = app.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", env.Error.Code)
}

func TestGoogleLoginWithoutSettings(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})

	status, env := app.do(http.MethodGet, "/api/v1/auth/google/login", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)

	status, env = app.do(http.MethodGet, "/api/v1/auth/google/callback?state=abc&code=xyz", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "OAUTH_STATE_MISMATCH", env.Error.Code)
}

func TestGenerateRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.GenerateRatePerMinute = 1
	app := newTestApp(t, cfg, stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)

	req := model.StartQuizRequest{Topic: "Math", Difficulty: "easy"}
	status, _ := app.do(http.MethodPost, "/api/v1/quiz/session", token, req)
	require.Equal(t, http.StatusOK, status)

	status, env := app.do(http.MethodPost, "/api/v1/quiz/session", token, req)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)
	status, _ := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Math", Difficulty: "easy"})
	require.Equal(t, http.StatusOK, status)

	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `edututor_quizzes_generated_total{outcome="ok",provider="stub"} 1`)
}

func TestQuizStream(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})
	token := app.signupAndLogin("student@example.com", model.RoleStudent)
	status, _ := app.do(http.MethodPost, "/api/v1/quiz/session", token, model.StartQuizRequest{Topic: "Math", Difficulty: "easy"})
	require.Equal(t, http.StatusOK, status)

	srv := httptest.NewServer(app.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/quiz/stream?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first ws.SessionResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, ws.EventSession, first.Event)
	assert.Equal(t, "READY", string(first.Session.State))
	assert.Empty(t, first.Session.Questions[0].CorrectLabel)

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionSubmit}))
	var notice ws.NoticeResponse
	require.NoError(t, conn.ReadJSON(&notice))
	assert.Equal(t, ws.EventNotice, notice.Event)
	assert.Equal(t, []int{0, 1}, notice.Notice.Missing)

	require.NoError(t, conn.WriteJSON(ws.AnswerRequest{Action: ws.ActionAnswer, Index: 5, Option: "4"}))
	var failed ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&failed))
	assert.Equal(t, ws.EventError, failed.Event)
	assert.Equal(t, "VALIDATION_ERROR", failed.Code)

	for i, option := range []string{"4", "Paris"} {
		require.NoError(t, conn.WriteJSON(ws.AnswerRequest{Action: ws.ActionAnswer, Index: i, Option: option}))
		var update ws.SessionResponse
		require.NoError(t, conn.ReadJSON(&update))
		assert.Equal(t, ws.EventSession, update.Event)
	}

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionSubmit}))
	var graded ws.GradedResponse
	require.NoError(t, conn.ReadJSON(&graded))
	assert.Equal(t, ws.EventGraded, graded.Event)
	require.NotNil(t, graded.Result)
	assert.Equal(t, 2, graded.Result.Score)
	assert.Equal(t, "B", string(graded.Session.Questions[0].CorrectLabel))
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	app := newTestApp(t, testConfig(), stubGenerator{text: twoQuestions})

	status, env := app.do(http.MethodPost, "/api/v1/auth/signup", "", model.SignupRequest{
		Email: "long@example.com", Password: strings.Repeat("a", 100), Name: "Long",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "password")

	// Under the rune limit but over bcrypt's byte limit.
	status, env = app.do(http.MethodPost, "/api/v1/auth/signup", "", model.SignupRequest{
		Email: "runes@example.com", Password: strings.Repeat("€", 30), Name: "Runes",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Message, "72 bytes")
}
