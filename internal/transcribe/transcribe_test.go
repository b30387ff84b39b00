package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recetario/backend/internal/logger"
)

func TestResolveBinary(t *testing.T) {
	t.Run("prefers local build when present", func(t *testing.T) {
		local := filepath.Join(t.TempDir(), "whisper-cli")
		require.NoError(t, os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755))

		e := New(local, "model.bin", "base", logger.New())
		bin, isLocal, err := e.resolveBinary()
		require.NoError(t, err)
		assert.True(t, isLocal)
		assert.Equal(t, local, bin)
	})

	t.Run("not installed anywhere", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())

		e := New(filepath.Join(t.TempDir(), "missing"), "model.bin", "base", logger.New())
		_, _, err := e.resolveBinary()
		assert.ErrorIs(t, err, ErrEngineNotInstalled)
	})
}

func TestAvailable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	e := New("", "", "base", logger.New())
	assert.False(t, e.Available())
}

func TestTranscribe_EngineNotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	e := New("", "", "base", logger.New())
	_, err := e.Transcribe(context.Background(), []byte("riff data"), "")

	assert.ErrorIs(t, err, ErrEngineNotInstalled)
}

func TestTranscribe_LocalStubEngine(t *testing.T) {
	// Stand-in engine that honors whisper.cpp's -of prefix contract.
	local := filepath.Join(t.TempDir(), "whisper-stub")
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then prefix="$2"; shift; fi
  shift
done
printf 'Pelar las patatas y cocer veinte minutos.\n' > "$prefix.txt"
`
	require.NoError(t, os.WriteFile(local, []byte(script), 0o755))

	e := New(local, "/models/ggml-base.bin", "base", logger.New())
	res, err := e.Transcribe(context.Background(), []byte("riff data"), "es")

	require.NoError(t, err)
	assert.Equal(t, "Pelar las patatas y cocer veinte minutos.", res.Text)
	assert.Equal(t, "whisper.cpp:ggml-base.bin", res.Model)
}

func TestLocalArgs(t *testing.T) {
	args := localArgs("/models/ggml-base.bin", "/tmp/a.wav", "es", "/out/transcript")
	assert.Equal(t, []string{"-m", "/models/ggml-base.bin", "-f", "/tmp/a.wav", "-otxt", "-of", "/out/transcript", "-l", "es"}, args)

	args = localArgs("/models/ggml-base.bin", "/tmp/a.wav", "", "/out/transcript")
	assert.NotContains(t, args, "-l")
}

func TestCliArgs(t *testing.T) {
	args := cliArgs("base", "/tmp/a.wav", "es", "/out")
	assert.Equal(t, []string{"/tmp/a.wav", "--model", "base", "--output_dir", "/out", "--output_format", "txt", "--language", "es"}, args)

	args = cliArgs("base", "/tmp/a.wav", "", "/out")
	assert.NotContains(t, args, "--language")
}

func TestReadArtifact(t *testing.T) {
	t.Run("expected path", func(t *testing.T) {
		dir := t.TempDir()
		expected := filepath.Join(dir, "transcript.txt")
		require.NoError(t, os.WriteFile(expected, []byte("hola"), 0o600))

		text, err := readArtifact(dir, expected)
		require.NoError(t, err)
		assert.Equal(t, "hola", text)
	})

	t.Run("falls back to directory scan", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "oddly-named.txt"), []byte("hola"), 0o600))

		text, err := readArtifact(dir, filepath.Join(dir, "transcript.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hola", text)
	})

	t.Run("no artifact", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.log"), []byte("x"), 0o600))

		_, err := readArtifact(dir, filepath.Join(dir, "transcript.txt"))
		assert.ErrorContains(t, err, "no output artifact")
	})
}
