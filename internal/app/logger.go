package app

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide logger. LOG_FORMAT=json switches to
// machine-readable output for deployment; the default text handler is for
// terminals.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg != nil && strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
