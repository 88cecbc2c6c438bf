package logger

import (
	"log/slog"
	"os"
)

// InitJSONLogger configures and sets the default slog logger to use JSON format.
// This ensures all log output is structured in JSON format for better parsing and analysis.
// Debug mode lowers the level so adapter-boundary details are visible.
func InitJSONLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
