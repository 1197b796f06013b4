package helpers

import (
	"io"
	"log/slog"
)

// LevelTrace is used for wire-level request/response logging.
const LevelTrace = slog.Level(-8)

func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLogger returns a JSON logger writing to w. Each verbosity step lowers the level by one slog
// level, starting from Warn.
func NewLogger(w io.Writer, verbosity int, callerTrace bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: callerTrace,
		Level:     slog.LevelWarn - slog.Level(verbosity*4),
	}))
}
