package debug

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enableForTest(t *testing.T) {
	prev := EnableDebug
	EnableDebug = "true"
	t.Cleanup(func() {
		EnableDebug = prev
		SetQuietMode(false)
		SetDebugOutput(nil)
	})
}

func TestPrintfWritesWhenEnabled(t *testing.T) {
	enableForTest(t)

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	Printf("starting %s\n", "v1.0")
	assert.Contains(t, buf.String(), "[DEBUG] starting v1.0")
}

func TestQuietModeSuppressesOutput(t *testing.T) {
	enableForTest(t)

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	SetQuietMode(true)
	Printf("hidden\n")
	LogParse("also hidden\n")
	assert.Empty(t, buf.String())
}

func TestComponentLoggers(t *testing.T) {
	enableForTest(t)

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	LogParse("views.xml: %d records\n", 2)
	LogIndex("loaded\n")
	assert.Contains(t, buf.String(), "[DEBUG:PARSE] views.xml: 2 records")
	assert.Contains(t, buf.String(), "[DEBUG:INDEX] loaded")
}

func TestDebugLogFileLifecycle(t *testing.T) {
	enableForTest(t)

	logPath, err := InitDebugLogFile()
	require.NoError(t, err)
	require.FileExists(t, logPath)
	t.Cleanup(func() { os.Remove(logPath) })

	Printf("to file\n")
	require.NoError(t, CloseDebugLog())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG] to file")

	// closing again with no open file is a no-op
	assert.NoError(t, CloseDebugLog())
}
