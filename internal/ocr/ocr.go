// Package ocr shapes requests to the tesseract engine: it stages the
// uploaded image on disk, optionally preprocesses it, runs recognition
// and relays per-word confidences. Temporary artifacts are removed on
// every exit path.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/recetario/backend/internal/logger"
)

// ErrNoText is returned when recognition produced only whitespace.
var ErrNoText = errors.New("no text found in image")

// Preprocessing holds optional image adjustments, both in [-100, 100].
type Preprocessing struct {
	Contrast   *float64 `json:"contrast,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
}

func (p *Preprocessing) empty() bool {
	return p == nil || (p.Contrast == nil && p.Brightness == nil)
}

// Word is one recognized word with its confidence (0-100).
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result is the recognition output.
type Result struct {
	Text       string
	Confidence float64
	Words      []Word
}

// Engine invokes the tesseract binary.
type Engine struct {
	binary      string
	defaultLang string
	log         *logger.Logger
}

// New creates a new Engine instance
func New(binary, defaultLang string, log *logger.Logger) *Engine {
	return &Engine{
		binary:      binary,
		defaultLang: defaultLang,
		log:         log.WithComponent("ocr"),
	}
}

// Available reports whether the OCR binary is installed.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// ExtractText recognizes text in the image. The language hint falls back
// to the configured default, and preprocessing is applied before
// recognition when provided.
func (e *Engine) ExtractText(ctx context.Context, image []byte, lang string, pre *Preprocessing) (*Result, error) {
	if lang == "" {
		lang = e.defaultLang
	}

	inputPath := filepath.Join(os.TempDir(), "ocr-"+uuid.New().String())
	if err := os.WriteFile(inputPath, image, 0o600); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer e.remove(inputPath)

	target := inputPath
	if !pre.empty() {
		adjusted, err := adjustImage(image, pre)
		if err != nil {
			return nil, fmt.Errorf("preprocess image: %w", err)
		}
		target = inputPath + "-pre.png"
		if err := os.WriteFile(target, adjusted, 0o600); err != nil {
			return nil, fmt.Errorf("stage preprocessed copy: %w", err)
		}
		defer e.remove(target)
	}

	out, err := e.run(ctx, target, lang)
	if err != nil {
		return nil, err
	}

	res := parseTSV(out)
	if strings.TrimSpace(res.Text) == "" {
		return nil, ErrNoText
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, path, lang string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.binary, path, "stdout", "-l", lang, "tsv")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ocr engine failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (e *Engine) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.log.WithError(err).WithField("path", path).Warn("failed to remove temp artifact")
	}
}

// parseTSV reconstructs text and word confidences from tesseract's TSV
// output. Word rows carry level 5; line changes become newlines.
func parseTSV(data []byte) *Result {
	res := &Result{Words: []Word{}}

	var text strings.Builder
	var confSum float64
	var confCount int
	lastLine := ""

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 12 || fields[0] != "5" {
			continue
		}

		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			conf = 0
		} else {
			confSum += conf
			confCount++
		}

		// block/paragraph/line triple identifies the text line.
		lineKey := fields[2] + "/" + fields[3] + "/" + fields[4]
		if text.Len() > 0 {
			if lineKey == lastLine {
				text.WriteByte(' ')
			} else {
				text.WriteByte('\n')
			}
		}
		lastLine = lineKey
		text.WriteString(word)

		res.Words = append(res.Words, Word{Text: word, Confidence: conf})
	}

	res.Text = text.String()
	if confCount > 0 {
		res.Confidence = confSum / float64(confCount)
	}
	return res
}
