package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/recetario/backend/config"
	"github.com/recetario/backend/internal/api"
	"github.com/recetario/backend/internal/database"
	"github.com/recetario/backend/internal/llm"
	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/ocr"
	"github.com/recetario/backend/internal/retriever"
	"github.com/recetario/backend/internal/server"
	"github.com/recetario/backend/internal/service"
	"github.com/recetario/backend/internal/transcribe"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// Both stores are optional: without a datastore retrieval degrades
	// to the static corpus, without redis results are not cached.
	var db *gorm.DB
	if cfg.DBConfigured() {
		db, err = database.Connect(cfg)
		if err != nil {
			log.WithError(err).Warn("datastore unavailable, continuing with static corpus only")
			db = nil
		}
	}

	var cache *redis.Client
	if cfg.RedisConfigured() {
		cache, err = database.NewRedisClient(cfg)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, continuing without result cache")
			cache = nil
		}
	}

	finder := retriever.New(db, log)
	client := llm.NewClient(cfg.ModelServiceURL, cfg.ModelName, log)
	extraction := service.NewExtractionService(finder, client, cache, log)

	recognizer := ocr.New(cfg.OCRBinary, cfg.OCRDefaultLanguage, log)
	transcriber := transcribe.New(cfg.WhisperBinary, cfg.WhisperModelPath, cfg.WhisperModel, log)

	srv := server.New(cfg,
		api.NewAnalyzeHandler(extraction, log),
		api.NewMediaHandler(recognizer, transcriber, cfg.OCRDefaultLanguage, log),
		api.NewHealthHandler(cfg, recognizer),
		log,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server shutdown error")
	}
	log.Info("server stopped")
}
