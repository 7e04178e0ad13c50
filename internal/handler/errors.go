package handler

import (
	"errors"
	"net/http"

	"github.com/edututor/edututor-backend/internal/response"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// statusFor maps a service error kind to an HTTP status and error code.
func statusFor(kind service.Kind) (int, response.ErrCode) {
	switch kind {
	case service.KindConfiguration:
		return http.StatusServiceUnavailable, response.ErrNotConfigured
	case service.KindExternal:
		return http.StatusBadGateway, response.ErrUpstream
	case service.KindValidation:
		return http.StatusBadRequest, response.ErrValidation
	case service.KindAuthentication:
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case service.KindNotFound:
		return http.StatusNotFound, response.ErrNotFound
	case service.KindConflict:
		return http.StatusConflict, response.ErrConflict
	case service.KindState:
		return http.StatusConflict, response.ErrInvalidSessionState
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// respondError writes err in the response envelope. Service errors keep their own
// message, which for configuration and upstream failures names the cause; anything
// else is logged and hidden behind INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindInternal {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	status, code := statusFor(se.Kind)
	if se.Kind == service.KindExternal {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("External call failed")
	}
	response.FailWithMessage(c, status, code, se.Error())
}
