package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		" WARN ":  LogLevelWarn,
		"warning": LogLevelWarn,
		"Error":   LogLevelError,
		"":        LogLevelInfo,
		"bogus":   LogLevelInfo,
	}

	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestLoggerWritesContextAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore("bot", core)

	logger.ErrorWithContext("collect failed", errors.New("boom"), map[string]interface{}{
		"account": int64(42),
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Message != "collect failed" {
		t.Errorf("Expected message 'collect failed', got '%s'", entry.Message)
	}
	if entry.LoggerName != "bot" {
		t.Errorf("Expected logger name 'bot', got '%s'", entry.LoggerName)
	}

	fields := entry.ContextMap()
	if fields["account"] != int64(42) {
		t.Errorf("Expected account field 42, got %v", fields["account"])
	}
	if fields["error"] != "boom" {
		t.Errorf("Expected error field 'boom', got %v", fields["error"])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := NewWithCore("tokens", core)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 entry at WARN, got %d", logs.Len())
	}
}

func TestNamedAndContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewWithCore("bot", core).Named("tasks")

	if logger.Component() != "bot.tasks" {
		t.Errorf("Expected component 'bot.tasks', got '%s'", logger.Component())
	}

	logger.WithContext(map[string]interface{}{"task": 7}).Info("done")

	entry := logs.All()[0]
	if entry.LoggerName != "bot.tasks" {
		t.Errorf("Expected logger name 'bot.tasks', got '%s'", entry.LoggerName)
	}
	if entry.ContextMap()["task"] != int64(7) {
		t.Errorf("Expected task field 7, got %v", entry.ContextMap()["task"])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("nothing")
	logger.Error("nothing", errors.New("x"))
}
