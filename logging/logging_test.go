package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLifecycle(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")

	require.NoError(t, SetupLogger(logPath))

	// Second setup is a no-op on an already-open logger
	require.NoError(t, SetupLogger(logPath))

	LogInfo("run started with %d files", 3)
	LogWarning("exiftool unavailable for %s", "a.jpg")
	LogError("failed to load %s", "b.jpg")
	DebugLog("worker count %d", 4)
	LogImageProcessed("c.jpg", true, "")
	LogImageSkipped("d.jpg", "no detection box")

	CloseLogger()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "INFO: run started with 3 files")
	assert.Contains(t, content, "WARNING: exiftool unavailable for a.jpg")
	assert.Contains(t, content, "ERROR: failed to load b.jpg")
	assert.Contains(t, content, "worker count 4")
	assert.Contains(t, content, "PROCESSED: c.jpg")
	assert.Contains(t, content, "SKIPPED: d.jpg - no detection box")
	assert.Contains(t, content, "Debug Log Closed")
}

func TestCloseLoggerWithoutSetup(t *testing.T) {
	// Closing an unopened logger must not panic
	CloseLogger()
}
