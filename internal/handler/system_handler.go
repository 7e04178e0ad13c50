package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/edututor/edututor-backend/internal/llm"
	"github.com/edututor/edututor-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const deepCheckTimeout = 30 * time.Second

// Pinger is anything the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports liveness and, on request, the reachability of collaborators.
type SystemHandler struct {
	store     Pinger
	sessions  Pinger
	generator llm.Generator
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(store, sessions Pinger, generator llm.Generator, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		store:     store,
		sessions:  sessions,
		generator: generator,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type checkResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health godoc
// GET /health[?deep=1]
// Liveness plus runtime figures. With deep=1 it also pings the store, the session
// cache and the LLM provider, and answers 503 if any of them fails.
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":     "ok",
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
	}

	if c.Query("deep") == "" {
		response.Success(c, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), deepCheckTimeout)
	defer cancel()

	checks := map[string]checkResult{
		"store":    h.check(ctx, "store", h.store),
		"sessions": h.check(ctx, "sessions", h.sessions),
		"llm":      h.check(ctx, "llm", h.generator),
	}
	body["checks"] = checks
	body["llm_provider"] = h.generator.Name()

	status := http.StatusOK
	for _, r := range checks {
		if r.Status != "ok" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			break
		}
	}
	response.Success(c, status, body)
}

func (h *SystemHandler) check(ctx context.Context, name string, p Pinger) checkResult {
	if err := p.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Str("check", name).Msg("Health check failed")
		return checkResult{Status: "fail", Error: err.Error()}
	}
	return checkResult{Status: "ok"}
}
