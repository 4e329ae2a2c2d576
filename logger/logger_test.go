package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	InitLogger(Config{Level: DebugLevel, OutputPath: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	Info("song staged", String("bucket", "audio"), Int64("size", 42))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"song staged"`)
	assert.Contains(t, string(data), `"bucket":"audio"`)

	// Subsequent calls keep the first configuration.
	InitLogger(Config{Level: ErrorLevel})
	Debug("still debug")
	Sync()
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "still debug")
}

func TestLevelMapping(t *testing.T) {
	assert.Equal(t, "debug", DebugLevel.zapLevel().String())
	assert.Equal(t, "warn", WarnLevel.zapLevel().String())
	assert.Equal(t, "error", ErrorLevel.zapLevel().String())
	assert.Equal(t, "info", LogLevel("verbose").zapLevel().String())
}
