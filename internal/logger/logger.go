// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
)

// Init installs a text logger writing to w as the default logger.
// Verbose lowers the level to debug.
func Init(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
