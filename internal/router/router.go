package router

import (
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/handler"
	"github.com/edututor/edututor-backend/internal/metrics"
	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/response"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Quiz   *handler.QuizHandler
	Result *handler.ResultHandler
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// Limiters are the per-client rate limiters applied to expensive or abusable routes.
type Limiters struct {
	Auth     *middleware.RateLimiter
	Generate *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	limiters *Limiters,
	m *metrics.Metrics,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the logger and every envelope can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Brotli(middleware.DefaultBrotliMinLength))

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", m.Handler())

	requireAuth := middleware.RequireAuth(authService)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/signup", limiters.Auth.Middleware(), handlers.Auth.Signup)
		auth.POST("/login", limiters.Auth.Middleware(), handlers.Auth.Login)
		auth.GET("/google/login", limiters.Auth.Middleware(), handlers.Auth.GoogleLogin)
		auth.GET("/google/callback", limiters.Auth.Middleware(), handlers.Auth.GoogleCallback)

		auth.GET("/me", requireAuth, handlers.Auth.Me)
		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
	}

	// ─── 2. Quiz Group (Student JWT) ───────────────────────────────────
	quizAPI := router.Group("/api/v1/quiz")
	quizAPI.Use(requireAuth, middleware.RequireRole(model.RoleStudent), middleware.NoStore())
	{
		quizAPI.GET("/session", handlers.Quiz.GetSession)
		quizAPI.POST("/session", limiters.Generate.Middleware(), handlers.Quiz.StartQuiz)
		quizAPI.DELETE("/session", handlers.Quiz.Reset)
		quizAPI.PUT("/session/answers/:index", handlers.Quiz.SelectAnswer)
		quizAPI.POST("/session/submit", handlers.Quiz.Submit)
		quizAPI.GET("/session/review", handlers.Quiz.Review)
	}

	// ─── 3. Results Group (JWT; full listing for educators) ────────────
	resultsAPI := router.Group("/api/v1/results")
	resultsAPI.Use(requireAuth, middleware.NoStore())
	{
		resultsAPI.GET("/me", handlers.Result.ListMine)
		resultsAPI.GET("", middleware.RequireRole(model.RoleEducator), handlers.Result.ListAll)
	}

	// ─── 4. WebSocket Group (Student JWT via ?token=) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth, middleware.RequireRole(model.RoleStudent))
	{
		ws.GET("/quiz/stream", handlers.WS.QuizStream)
	}

	return router
}
