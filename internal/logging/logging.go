package logging

import (
	"io"
	"log/slog"
	"os"
)

func NewWithWriter(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// New logs JSON lines to stdout, which Lambda forwards to CloudWatch.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}
