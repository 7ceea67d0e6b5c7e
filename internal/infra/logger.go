package infra

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger: leveled text output to the
// console and, when a log file is configured, the same stream appended
// to it. The file is the bot's persistent execution log.
func NewLogger(cfg *Config) (*slog.Logger, error) {
	var out io.Writer = os.Stdout

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stdout, f)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	})
	return slog.New(handler), nil
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
