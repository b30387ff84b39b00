package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/ocr"
	"github.com/recetario/backend/internal/transcribe"
)

// TextRecognizer is the OCR dependency of the media endpoints.
type TextRecognizer interface {
	ExtractText(ctx context.Context, image []byte, lang string, pre *ocr.Preprocessing) (*ocr.Result, error)
	Available() bool
}

// Transcriber is the speech-to-text dependency of the media endpoints.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang string) (*transcribe.Result, error)
}

// MediaHandler serves the OCR and transcription endpoints that feed raw
// text into the extraction pipeline.
type MediaHandler struct {
	recognizer  TextRecognizer
	transcriber Transcriber
	defaultLang string
	log         *logger.Logger
}

// NewMediaHandler creates a new MediaHandler instance
func NewMediaHandler(recognizer TextRecognizer, transcriber Transcriber, defaultLang string, log *logger.Logger) *MediaHandler {
	return &MediaHandler{
		recognizer:  recognizer,
		transcriber: transcriber,
		defaultLang: defaultLang,
		log:         log.WithComponent("api"),
	}
}

// RegisterRoutes registers the media preprocessing routes
func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/ocr", h.OCR)
	router.POST("/transcribe", h.Transcribe)
}

// OCR handles POST /api/ocr.
func (h *MediaHandler) OCR(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	data, err := readUpload(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image upload"})
		return
	}

	var pre *ocr.Preprocessing
	if raw := c.PostForm("preprocessing"); raw != "" {
		pre = &ocr.Preprocessing{}
		if err := json.Unmarshal([]byte(raw), pre); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preprocessing options: " + err.Error()})
			return
		}
	}

	lang := c.PostForm("language")
	if lang == "" {
		lang = h.defaultLang
	}

	result, err := h.recognizer.ExtractText(c.Request.Context(), data, lang, pre)
	if err != nil {
		h.log.WithError(err).Error("ocr failed")
		if errors.Is(err, ocr.ErrNoText) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no text could be extracted; try a sharper photo or preprocessing adjustments"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":       result.Text,
		"language":   lang,
		"confidence": result.Confidence,
		"words":      result.Words,
	})
}

// Transcribe handles POST /api/transcribe.
func (h *MediaHandler) Transcribe(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	data, err := readUpload(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio upload"})
		return
	}

	lang := c.PostForm("language")

	result, err := h.transcriber.Transcribe(c.Request.Context(), data, lang)
	if err != nil {
		h.log.WithError(err).Error("transcription failed")
		switch {
		case errors.Is(err, transcribe.ErrEngineNotInstalled):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no transcription engine installed; install whisper or configure WHISPER_BINARY"})
		case errors.Is(err, transcribe.ErrTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "transcription timed out, please retry with a shorter recording"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":     result.Text,
		"language": lang,
		"model":    result.Model,
	})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
