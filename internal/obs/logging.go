// Package obs contains observability utilities such as logging.
package obs

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process-wide structured logger. It discards output until
// InitLogger is called so packages and tests can log unconditionally.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// InitLogger initializes Logger with a JSON handler on stdout at level.
func InitLogger(level slog.Level) {
	Logger = New(os.Stdout, level)
}

// New returns a JSON logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
