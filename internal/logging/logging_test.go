package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		result := tt.level.String()
		if result != tt.expected {
			t.Errorf("LogLevel(%d).String() = '%s', expected '%s'", tt.level, result, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"Error", LogLevelError},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		result := ParseLogLevel(tt.input)
		if result != tt.expected {
			t.Errorf("ParseLogLevel('%s') = %d, expected %d", tt.input, result, tt.expected)
		}
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("WARN") {
		t.Error("expected WARN to be valid")
	}
	if ValidLevel("verbose") {
		t.Error("expected verbose to be invalid")
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn %d", 1)
	logger.Error("error %s", "two")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below level were written: %s", out)
	}
	if !strings.Contains(out, "warn 1") {
		t.Errorf("expected warn message, got: %s", out)
	}
	if !strings.Contains(out, "error two") {
		t.Errorf("expected error message, got: %s", out)
	}
}

func TestLogger_WithComponentSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: LogLevelError, Output: &buf, Prefix: "test"})
	child := root.WithComponent("signal")

	child.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got: %s", buf.String())
	}

	root.SetLevel(LogLevelDebug)
	if child.Level() != LogLevelDebug {
		t.Errorf("child level = %v, want DEBUG", child.Level())
	}

	child.Info("visible")
	out := buf.String()
	if !strings.Contains(out, "visible") {
		t.Errorf("expected message after level change, got: %s", out)
	}
	if !strings.Contains(out, "component=signal") {
		t.Errorf("expected component attribute, got: %s", out)
	}
	if !strings.Contains(out, "app=test") {
		t.Errorf("expected app attribute, got: %s", out)
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelDebug, Output: &buf}).WithFields(map[string]any{"key": "k1"})

	logger.Debug("hello")
	if !strings.Contains(buf.String(), "key=k1") {
		t.Errorf("expected field in output, got: %s", buf.String())
	}
}

func TestLogger_Disable(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelDebug, Output: &buf})

	logger.Disable()
	logger.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got: %s", buf.String())
	}

	logger.Enable()
	logger.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected output after Enable, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}

	var buf bytes.Buffer
	prev := Default()
	defer SetDefault(prev)

	SetDefault(New(Config{Level: LogLevelInfo, Output: &buf}))
	Default().Info("through default")
	if !strings.Contains(buf.String(), "through default") {
		t.Errorf("expected message through replaced default, got: %s", buf.String())
	}

	SetDefault(nil)
	if Default() == nil {
		t.Error("SetDefault(nil) must not clear the default logger")
	}
}
