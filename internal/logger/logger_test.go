package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short text untouched", input: "hola", maxLen: 10, want: "hola"},
		{name: "exact length untouched", input: "abcdef", maxLen: 6, want: "abcdef"},
		{name: "long text truncated", input: "abcdefghij", maxLen: 6, want: "abc..."},
		{name: "tiny limit", input: "abcdef", maxLen: 2, want: "..."},
		{name: "multibyte runes kept whole", input: "¿Quién gana hoy?", maxLen: 8, want: "¿Quié..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{level: "debug", want: slog.LevelDebug},
		{level: "info", want: slog.LevelInfo},
		{level: "warn", want: slog.LevelWarn},
		{level: "error", want: slog.LevelError},
		{level: "bogus", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.level); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger(&buf, "info", true)
	log.Debug("hidden")
	log.Info("shown", "chat_id", int64(5))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, `"chat_id":5`) {
		t.Errorf("expected JSON attribute in output, got %s", out)
	}
}

func TestGocronLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewGocronLogger(newLogger(&buf, "info", false))
	l.Info("job bookkeeping")
	l.Debug("job tick")
	l.Warn("job slow", "name", "broadcast")
	l.Error("job failed", "name", "broadcast")

	out := buf.String()
	if strings.Contains(out, "bookkeeping") || strings.Contains(out, "tick") {
		t.Errorf("info and debug scheduler lines should be hidden at info level: %s", out)
	}
	for _, want := range []string{"job slow", "job failed", "component=gocron", "name=broadcast"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %s", want, out)
		}
	}
}
