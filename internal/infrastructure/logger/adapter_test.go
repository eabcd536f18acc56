package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "search_wireless_headphones", sanitize("search wireless headphones!"))
	assert.Equal(t, "agent", sanitize("***"))
	assert.Len(t, sanitize(strings.Repeat("a", 100)), 60)
}

func TestLoggerAdapter_WithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewWithZap(zap.New(core))

	child := log.WithField("task_id", "t-1").WithFields(map[string]any{"op": "search"})
	child.Info("Task created", "attempt", 1)
	log.Debug("root message")

	require.Equal(t, 2, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "Task created", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "t-1", fields["task_id"])
	assert.Equal(t, "search", fields["op"])
	assert.EqualValues(t, 1, fields["attempt"])

	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestNewLoggerAdapter_WritesFile(t *testing.T) {
	dir := t.TempDir()

	log, err := NewLoggerAdapter(Config{Name: "demo run", Dir: dir, Level: "debug"})
	require.NoError(t, err)

	log.Warn("Purchase automation initiated", "url", "https://shop.example")
	require.NoError(t, log.Close())

	files, err := filepath.Glob(filepath.Join(dir, "*_demo_run.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Purchase automation initiated"`)
	assert.Contains(t, string(data), `"url":"https://shop.example"`)
}

func TestNewLoggerAdapter_InvalidLevel(t *testing.T) {
	_, err := NewLoggerAdapter(Config{Name: "x", Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Error("ignored", "k", "v")
	assert.NoError(t, log.Close())
}
