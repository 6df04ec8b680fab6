package commands

import (
	"log/slog"
	"os"
)

var logger *slog.Logger

// logLevel picks the log level from the environment. ALBUMSYNC_DEBUG turns
// on debug logging for the whole run.
func logLevel() slog.Level {
	if os.Getenv("ALBUMSYNC_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func init() {
	opts := &slog.HandlerOptions{
		Level: logLevel(),
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
}
