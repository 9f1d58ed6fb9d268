package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		if logger := New(level); logger == nil || logger.Logger == nil {
			t.Errorf("New(%q) returned nil logger", level)
		}
	}
}

func TestComponent(t *testing.T) {
	logger := Default().Component("agent")
	if logger == nil || logger.Logger == nil {
		t.Fatal("Component returned nil logger")
	}

	var nilLogger *Logger
	if got := nilLogger.Component("agent"); got == nil {
		t.Fatal("Component on nil logger should fall back to default")
	}
}
