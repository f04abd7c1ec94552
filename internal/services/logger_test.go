package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerStructured(t *testing.T) {
	var buf bytes.Buffer
	l := NewProductionLogger("yasmin", &buf, LogLevelInfo, true)

	l.Debug("hidden")
	l.Info("turn resolved", "provider", "gemini", "attempts", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "turn resolved", entry["msg"])
	assert.Equal(t, "yasmin", entry["service"])
	assert.Equal(t, "gemini", entry["provider"])
}

func TestProductionLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewProductionLogger("yasmin", &buf, LogLevelError, false)
	l.Warn("dropped")
	assert.Empty(t, buf.String())

	l.SetLevel(LogLevelDebug)
	l.Debug("kept", "k", "v")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "k=v")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}
