// Package logger configures the process-wide slog logger. Every
// component takes a *slog.Logger and scopes it with With; this package
// only decides the handler, level, and output.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line. Default in production.
	FormatJSON Format = "json"

	// FormatText emits human-readable key=value lines.
	FormatText Format = "text"
)

// ParseLevel parses a string into a slog.Level. Unknown strings fall
// back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat parses a string into a Format. Unknown strings fall back
// to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// New builds a logger writing to w.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Setup builds a stdout logger from string settings and installs it as
// the slog default, so libraries that fall back to slog.Default share
// the same handler.
func Setup(level, format string) *slog.Logger {
	l := New(os.Stdout, ParseLevel(level), ParseFormat(format))
	slog.SetDefault(l)
	return l
}
