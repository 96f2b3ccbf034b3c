package internal

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds the process logger: JSON with RFC3339Nano timestamps
// and a service attribute in prod, human-readable text everywhere else.
// Unrecognized level strings fall back to info.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if env != "prod" {
		return slog.New(slog.NewTextHandler(w, opts))
	}

	opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
		}
		return a
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", "praxis")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
