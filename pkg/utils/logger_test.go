package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"unknown", LevelInfo}, // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestDefaultLogger_FilterByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelWarn, buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "[WARN] warn message")
	assert.Contains(t, output, "[ERROR] error message")
}

func TestDefaultLogger_FieldsAreSorted(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.WithFields(map[string]interface{}{
		"shape":    147,
		"coverage": 0.95,
	}).WithField("iter", 3).Info("newton step")

	output := buf.String()
	assert.Contains(t, output, "coverage=0.95 iter=3 shape=147 newton step")
}

func TestDefaultLogger_WithFieldDoesNotLeak(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	_ = logger.WithField("job", "a")
	logger.Info("plain")

	assert.NotContains(t, buf.String(), "job=a")
}

func TestDefaultLogger_Formatting(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.Info("lo=%.2f hi=%.2f", 2.44, 3.37)
	logger.Info("%s", "100% literal")

	output := buf.String()
	assert.Contains(t, output, "lo=2.44 hi=3.37")
	assert.Contains(t, output, "100% literal")
}

func TestDefaultLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.Debug("debug 1")
	assert.NotContains(t, buf.String(), "debug 1")

	logger.SetLevel(LevelDebug)
	logger.Debug("debug 2")
	assert.Contains(t, buf.String(), "debug 2")
}

func TestNullLogger(t *testing.T) {
	logger := &NullLogger{}

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	assert.Equal(t, logger, logger.WithField("key", "value"))
	assert.Equal(t, logger, logger.WithFields(map[string]interface{}{"key": "value"}))
}

func TestGlobalLogger(t *testing.T) {
	original := globalLogger
	defer SetGlobalLogger(original)

	buf := &bytes.Buffer{}
	SetGlobalLogger(NewDefaultLogger(LevelInfo, buf))

	GetGlobalLogger().Info("global log")
	assert.Contains(t, buf.String(), "global log")
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = &DefaultLogger{}
	var _ Logger = &NullLogger{}
}

func TestDefaultLogger_TimestampFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.Info("test message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "["))
}
