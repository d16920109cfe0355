// Package logging provides the operational logger and the run output sinks:
// per-seed CSV result logs and champion genome artifacts.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps "debug" (case-insensitive) to slog.LevelDebug; anything
// else is info.
func ParseLevel(s string) slog.Level {
	if strings.EqualFold(s, "debug") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}
