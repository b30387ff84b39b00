// Package transcribe runs a whisper engine over uploaded audio. A local
// whisper.cpp build is preferred; a system-installed whisper CLI is the
// fallback. Uploaded audio and the output directory are removed on
// every exit path.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recetario/backend/internal/logger"
)

var (
	// ErrEngineNotInstalled: neither the local build nor a PATH
	// binary is present.
	ErrEngineNotInstalled = errors.New("no transcription engine installed")
	// ErrTimeout: the engine exceeded the hard execution deadline and
	// was killed.
	ErrTimeout = errors.New("transcription timed out")
)

const (
	defaultTimeout = 5 * time.Minute
	fallbackBinary = "whisper"
)

// Result is the transcription output.
type Result struct {
	Text  string
	Model string
}

// Engine shells out to a whisper binary.
type Engine struct {
	localBinary string // path to a whisper.cpp build, may be empty
	modelPath   string // ggml model file for the local build
	model       string // model name for the PATH fallback CLI
	timeout     time.Duration
	log         *logger.Logger
}

// New creates a new Engine instance
func New(localBinary, modelPath, model string, log *logger.Logger) *Engine {
	return &Engine{
		localBinary: localBinary,
		modelPath:   modelPath,
		model:       model,
		timeout:     defaultTimeout,
		log:         log.WithComponent("transcribe"),
	}
}

// Available reports whether any transcription engine can be resolved.
func (e *Engine) Available() bool {
	_, _, err := e.resolveBinary()
	return err == nil
}

// resolveBinary picks the local whisper.cpp build when present,
// otherwise a system-installed whisper.
func (e *Engine) resolveBinary() (bin string, local bool, err error) {
	if e.localBinary != "" {
		if _, statErr := os.Stat(e.localBinary); statErr == nil {
			return e.localBinary, true, nil
		}
	}
	if path, lookErr := exec.LookPath(fallbackBinary); lookErr == nil {
		return path, false, nil
	}
	return "", false, ErrEngineNotInstalled
}

// Transcribe runs the engine over the audio bytes with a hard execution
// timeout and returns the transcript plus the model that produced it.
func (e *Engine) Transcribe(ctx context.Context, audio []byte, lang string) (*Result, error) {
	bin, local, err := e.resolveBinary()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	audioPath := filepath.Join(os.TempDir(), "transcribe-"+id+".wav")
	if err := os.WriteFile(audioPath, audio, 0o600); err != nil {
		return nil, fmt.Errorf("stage audio: %w", err)
	}
	defer e.removeAll(audioPath)

	outDir, err := os.MkdirTemp("", "transcribe-out-")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer e.removeAll(outDir)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var args []string
	var expected string
	if local {
		prefix := filepath.Join(outDir, "transcript")
		args = localArgs(e.modelPath, audioPath, lang, prefix)
		expected = prefix + ".txt"
	} else {
		args = cliArgs(e.model, audioPath, lang, outDir)
		base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
		expected = filepath.Join(outDir, base+".txt")
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
		}
		return nil, fmt.Errorf("transcription engine failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	text, err := readArtifact(outDir, expected)
	if err != nil {
		return nil, err
	}

	modelUsed := "whisper:" + e.model
	if local {
		modelUsed = "whisper.cpp:" + filepath.Base(e.modelPath)
	}
	return &Result{Text: strings.TrimSpace(text), Model: modelUsed}, nil
}

// localArgs builds the whisper.cpp invocation.
func localArgs(modelPath, audioPath, lang, outPrefix string) []string {
	args := []string{"-m", modelPath, "-f", audioPath, "-otxt", "-of", outPrefix}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	return args
}

// cliArgs builds the system whisper CLI invocation.
func cliArgs(model, audioPath, lang, outDir string) []string {
	args := []string{audioPath, "--model", model, "--output_dir", outDir, "--output_format", "txt"}
	if lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// readArtifact reads the expected transcript file, scanning the output
// directory for any .txt artifact before giving up. Engines differ on
// how they derive output names.
func readArtifact(dir, expected string) (string, error) {
	if data, err := os.ReadFile(expected); err == nil {
		return string(data), nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan output dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("transcription produced no output artifact in %s", dir)
}

func (e *Engine) removeAll(path string) {
	if err := os.RemoveAll(path); err != nil {
		e.log.WithError(err).WithField("path", path).Warn("failed to remove temp artifact")
	}
}
