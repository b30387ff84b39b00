package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/ocr"
	"github.com/recetario/backend/internal/transcribe"
)

type fakeRecognizer struct {
	result    *ocr.Result
	err       error
	available bool
	gotLang   string
	gotPre    *ocr.Preprocessing
}

func (f *fakeRecognizer) ExtractText(_ context.Context, _ []byte, lang string, pre *ocr.Preprocessing) (*ocr.Result, error) {
	f.gotLang = lang
	f.gotPre = pre
	return f.result, f.err
}

func (f *fakeRecognizer) Available() bool { return f.available }

type fakeTranscriber struct {
	result *transcribe.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (*transcribe.Result, error) {
	return f.result, f.err
}

func mediaRouter(rec TextRecognizer, tr Transcriber) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMediaHandler(rec, tr, "spa", logger.New())

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return router
}

// multipartBody builds a request body with one file part plus form fields.
func multipartBody(t *testing.T, fileField, fileName string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("binary payload"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postMedia(t *testing.T, router *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOCR_Success(t *testing.T) {
	rec := &fakeRecognizer{result: &ocr.Result{
		Text:       "Pollo asado con patatas",
		Confidence: 91.5,
		Words:      []ocr.Word{{Text: "Pollo", Confidence: 95}},
	}}
	router := mediaRouter(rec, &fakeTranscriber{})

	body, ct := multipartBody(t, "image", "receta.jpg", nil)
	w := postMedia(t, router, "/api/ocr", body, ct)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pollo asado con patatas")
	assert.Contains(t, w.Body.String(), `"language":"spa"`)
	assert.Equal(t, "spa", rec.gotLang)
	assert.Nil(t, rec.gotPre)
}

func TestOCR_LanguageAndPreprocessingForwarded(t *testing.T) {
	rec := &fakeRecognizer{result: &ocr.Result{Text: "ok"}}
	router := mediaRouter(rec, &fakeTranscriber{})

	body, ct := multipartBody(t, "image", "receta.jpg", map[string]string{
		"language":      "cat",
		"preprocessing": `{"contrast": 20, "brightness": -10}`,
	})
	w := postMedia(t, router, "/api/ocr", body, ct)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cat", rec.gotLang)
	require.NotNil(t, rec.gotPre)
	require.NotNil(t, rec.gotPre.Contrast)
	assert.Equal(t, 20.0, *rec.gotPre.Contrast)
	require.NotNil(t, rec.gotPre.Brightness)
	assert.Equal(t, -10.0, *rec.gotPre.Brightness)
}

func TestOCR_MissingFile(t *testing.T) {
	router := mediaRouter(&fakeRecognizer{}, &fakeTranscriber{})

	body, ct := multipartBody(t, "", "", map[string]string{"language": "spa"})
	w := postMedia(t, router, "/api/ocr", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "image file is required")
}

func TestOCR_InvalidPreprocessing(t *testing.T) {
	router := mediaRouter(&fakeRecognizer{}, &fakeTranscriber{})

	body, ct := multipartBody(t, "image", "receta.jpg", map[string]string{
		"preprocessing": `{"contrast": "lots"}`,
	})
	w := postMedia(t, router, "/api/ocr", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid preprocessing options")
}

func TestOCR_NoTextFound(t *testing.T) {
	router := mediaRouter(&fakeRecognizer{err: ocr.ErrNoText}, &fakeTranscriber{})

	body, ct := multipartBody(t, "image", "receta.jpg", nil)
	w := postMedia(t, router, "/api/ocr", body, ct)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "sharper photo")
}

func TestTranscribe_Success(t *testing.T) {
	tr := &fakeTranscriber{result: &transcribe.Result{
		Text:  "Pelar las patatas y cocer veinte minutos.",
		Model: "whisper.cpp:ggml-base.bin",
	}}
	router := mediaRouter(&fakeRecognizer{}, tr)

	body, ct := multipartBody(t, "audio", "nota.wav", map[string]string{"language": "es"})
	w := postMedia(t, router, "/api/transcribe", body, ct)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pelar las patatas")
	assert.Contains(t, w.Body.String(), "whisper.cpp:ggml-base.bin")
	assert.Contains(t, w.Body.String(), `"language":"es"`)
}

func TestTranscribe_MissingFile(t *testing.T) {
	router := mediaRouter(&fakeRecognizer{}, &fakeTranscriber{})

	body, ct := multipartBody(t, "", "", nil)
	w := postMedia(t, router, "/api/transcribe", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "audio file is required")
}

func TestTranscribe_EngineNotInstalled(t *testing.T) {
	router := mediaRouter(&fakeRecognizer{}, &fakeTranscriber{err: transcribe.ErrEngineNotInstalled})

	body, ct := multipartBody(t, "audio", "nota.wav", nil)
	w := postMedia(t, router, "/api/transcribe", body, ct)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "WHISPER_BINARY")
}

func TestTranscribe_Timeout(t *testing.T) {
	router := mediaRouter(&fakeRecognizer{}, &fakeTranscriber{err: transcribe.ErrTimeout})

	body, ct := multipartBody(t, "audio", "nota.wav", nil)
	w := postMedia(t, router, "/api/transcribe", body, ct)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "shorter recording")
}
