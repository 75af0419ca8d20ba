package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelError},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"CRITICAL", LevelCritical},
		{"NOTSET", slog.LevelDebug - 4},
		{"NOTEST", slog.LevelDebug - 4},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("LOUD"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}

func TestNewFiltersAndFormats(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelError, false)
	logger.Info("hidden")
	logger.Log(context.Background(), LevelCritical, "boom", "page", "42")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at error level: %q", out)
	}
	if !strings.Contains(out, "level=CRITICAL") || !strings.Contains(out, "page=42") {
		t.Errorf("critical record = %q", out)
	}

	buf.Reset()
	New(&buf, slog.LevelDebug, true).Debug("traced", "groups", 3)
	if !strings.Contains(buf.String(), `"groups":3`) {
		t.Errorf("json record = %q", buf.String())
	}
}
