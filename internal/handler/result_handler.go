package handler

import (
	"net/http"

	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/response"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	resultService *service.ResultService
}

func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// ListMine godoc
// GET /api/v1/results/me
func (h *ResultHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)

	results, err := h.resultService.ListForUser(c.Request.Context(), claims.Email())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ListAll godoc
// GET /api/v1/results?email=
// Educators only. Results are truncated at the store's retrieval cap.
func (h *ResultHandler) ListAll(c *gin.Context) {
	results, err := h.resultService.ListAll(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
