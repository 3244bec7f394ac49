// Package logging builds the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// New builds a slog.Logger writing JSON unless NO_COLOR/TERM=dumb asks for
// plain text, mirroring the env knobs spec.md §6 names for the client CLI.
func New(component string) *slog.Logger {
	level := levelFromEnv()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler).With("component", component)
}

func levelFromEnv() slog.Level {
	switch os.Getenv("MODHOST_LOG_LEVEL") {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForMod returns a logger scoped the way the console capability (C8)
// attaches fields to every record it emits.
func ForMod(base *slog.Logger, gameID, runtimeType, modID string) *slog.Logger {
	l := base
	if gameID != "" {
		l = l.With("game_id", gameID)
	}
	return l.With("runtime_type", runtimeType, "mod_id", modID)
}
