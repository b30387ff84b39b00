package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recetario/backend/internal/llm"
	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/service"
)

// AnalyzeHandler serves the recipe extraction endpoint.
type AnalyzeHandler struct {
	svc *service.ExtractionService
	log *logger.Logger
}

// NewAnalyzeHandler creates a new AnalyzeHandler instance
func NewAnalyzeHandler(svc *service.ExtractionService, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc, log: log.WithComponent("api")}
}

// RegisterRoutes registers the extraction routes
func (h *AnalyzeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/analyze-recipe", h.Analyze)
}

// Analyze handles POST /api/analyze-recipe.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req struct {
		RawText     string `json:"rawText"`
		MainProtein string `json:"mainProtein"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	// Validation happens before any retrieval or model call.
	if strings.TrimSpace(req.RawText) == "" || strings.TrimSpace(req.MainProtein) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rawText and mainProtein are required"})
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), req.RawText, req.MainProtein)
	if err != nil {
		h.log.WithError(err).Error("extraction failed")
		if errors.Is(err, llm.ErrTimeout) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "model call timed out, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
