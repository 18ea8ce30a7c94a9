package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/writing/internal/config"
)

// NewLogger builds the process logger for command cmd and makes it the slog
// default. Every record carries the command name and the build version.
//
// Format "json" is for production; "text" adds source locations for local
// runs. Level is debug, info, warn or error, case-insensitive; anything else
// means info. Output goes to stderr.
func NewLogger(cfg config.LogConfig, cmd string) *slog.Logger {
	logger := newLogger(os.Stderr, cfg).With(
		slog.String("cmd", cmd),
		slog.String("version", Version),
	)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
