package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:   DebugLevel,
		Output:  &buf,
		Service: "test-service",
		Version: "1.0.0",
		Encoder: NewJSONEncoder(false),
	})

	logger.Info("test message")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry.Message)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "test-service", entry.Service)
	assert.Contains(t, entry.Caller, "logger_test.go")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: InfoLevel, Output: &buf})

	child := logger.WithField("run_id", "abc").WithFields(map[string]interface{}{"project": "finance"})
	child.InfoWithFields("created", map[string]interface{}{"connection_id": 7})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry.Fields["run_id"])
	assert.Equal(t, "finance", entry.Fields["project"])
	assert.EqualValues(t, 7, entry.Fields["connection_id"])

	buf.Reset()
	logger.Info("parent untouched")
	assert.NotContains(t, buf.String(), "run_id")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: WarnLevel, Output: &buf})

	logger.Debug("debug")
	logger.Info("info")
	assert.Empty(t, buf.String())

	logger.Error("boom")
	assert.Contains(t, buf.String(), "boom")
}

func TestLoggerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: InfoLevel, Output: &buf})

	logger.InfoWithFields("connecting", map[string]interface{}{
		"user":          "alice",
		"password":      "hunter2",
		"service_token": "dbtc_abc",
	})

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "dbtc_abc")
	assert.Contains(t, out, "alice")
	assert.Equal(t, 2, strings.Count(out, "********"))
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Error("dropped")
	})
}

func TestLogLevelFromString(t *testing.T) {
	assert.Equal(t, DebugLevel, LogLevelFromString("debug"))
	assert.Equal(t, WarnLevel, LogLevelFromString("WARNING"))
	assert.Equal(t, ErrorLevel, LogLevelFromString("error"))
	assert.Equal(t, InfoLevel, LogLevelFromString("nonsense"))
}
