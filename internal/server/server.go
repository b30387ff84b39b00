// Package server assembles the Gin engine and owns the HTTP lifecycle.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recetario/backend/config"
	"github.com/recetario/backend/internal/api"
	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	engine *gin.Engine
	http   *http.Server
	log    *logger.Logger
}

// New creates a new server instance and registers all routes.
func New(cfg *config.Config, analyze *api.AnalyzeHandler, media *api.MediaHandler, health *api.HealthHandler, log *logger.Logger) *Server {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.RequestLogger(log))

	health.RegisterRoutes(engine)

	apiGroup := engine.Group("/api")
	analyze.RegisterRoutes(apiGroup)
	media.RegisterRoutes(apiGroup)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
		log: log,
	}
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
