package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/config"
)

func newBufferLogger(level LogLevel, format string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &Logger{
		level:  level,
		format: format,
		output: buf,
		fields: make(map[string]interface{}),
	}

	return logger, buf
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(WarnLevel, "text")

	logger.Debug("not shown")
	logger.Info("not shown either")
	logger.Warn("shown")
	logger.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "not shown")
	assert.Contains(t, out, "WARN shown")
	assert.Contains(t, out, "ERROR also shown")
}

func TestTextFormatWithFields(t *testing.T) {
	logger, buf := newBufferLogger(DebugLevel, "text")

	logger.WithField("table", "orders").Infof("indexed %d documents", 7)

	out := buf.String()
	assert.Contains(t, out, "INFO indexed 7 documents")
	assert.Contains(t, out, "table=orders")
}

func TestJSONFormat(t *testing.T) {
	logger, buf := newBufferLogger(DebugLevel, "json")

	logger.WithError(errors.New("no such table")).ErrorWithErr("compile check failed", errors.New("no such table"))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "compile check failed", entry.Message)
	assert.Equal(t, "no such table", entry.Error)
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	logger, buf := newBufferLogger(DebugLevel, "text")

	child := logger.WithFields(map[string]interface{}{"question": "q1"})
	child.Info("child")
	logger.Info("parent")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "question=q1")
	assert.NotContains(t, string(lines[1]), "question=q1")
}

func TestNewLoggerFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewLogger(config.LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "file",
		File:   logPath,
	})
	require.NoError(t, err)

	logger.Info("written to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewLoggerInvalidOutput(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "syslog"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log output")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, WarnLevel, parseLogLevel("WARNING"))
	assert.Equal(t, InfoLevel, parseLogLevel("bogus"))
}
