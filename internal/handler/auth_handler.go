package handler

import (
	"net/http"
	"time"

	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/response"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/edututor/edututor-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	oauthStateCookie = "edututor_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	oauthService *service.OAuthService
	quizService  *service.QuizService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	oauthService *service.OAuthService,
	quizService *service.QuizService,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		quizService:  quizService,
	}
}

// Signup godoc
// POST /api/v1/auth/signup
// Creates a password account. Duplicate emails are rejected with CONFLICT.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// GoogleLogin godoc
// GET /api/v1/auth/google/login
// Redirects to the Google consent page with a random state bound to a cookie.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	url, err := h.oauthService.AuthURL(state)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(oauthStateTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, url)
}

// GoogleCallback godoc
// GET /api/v1/auth/google/callback
// Verifies state, exchanges the code and signs the user in, creating a student
// account on first login.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		response.Fail(c, http.StatusBadRequest, response.ErrOAuthStateMismatch)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	if reason := c.Query("error"); reason != "" {
		response.FailWithMessage(c, http.StatusUnauthorized, response.ErrInvalidCredentials, "Google sign-in was cancelled: "+reason)
		return
	}
	code := c.Query("code")
	if code == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"code": "code is required"})
		return
	}

	identity, err := h.oauthService.Identify(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.authService.LoginExternal(c.Request.Context(), identity.Email, identity.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.authService.Me(c.Request.Context(), claims.Email())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the current token and discards the user's quiz session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if _, err := h.quizService.Reset(c.Request.Context(), claims.Email()); err != nil {
		respondError(c, err)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
