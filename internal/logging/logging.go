// Package logging configures the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelCritical sits above slog's error level.
const LevelCritical = slog.LevelError + 4

// ParseLevel maps a level name to a slog level. NOTSET logs everything;
// NOTEST is accepted as its historical misspelling.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NOTSET", "NOTEST", "TRACE":
		return slog.LevelDebug - 4, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "", "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return 0, fmt.Errorf("unknown log level %q (want NOTSET, DEBUG, INFO, WARN, ERROR or CRITICAL)", name)
}

// New builds a text or JSON logger writing to w at level.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
