package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recetario/backend/config"
)

// HealthHandler serves the liveness/config probe.
type HealthHandler struct {
	cfg        *config.Config
	recognizer TextRecognizer
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(cfg *config.Config, recognizer TextRecognizer) *HealthHandler {
	return &HealthHandler{cfg: cfg, recognizer: recognizer}
}

// RegisterRoutes registers the health route at the engine root
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"model_service_url":   h.cfg.ModelServiceURL,
		"model_name":          h.cfg.ModelName,
		"transcription_model": h.cfg.WhisperModel,
		"ocr_enabled":         h.recognizer.Available(),
	})
}
