// Package logging configures structured logging for settleup.
//
// Usage:
//
//	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
//
// Levels: debug, info, warn, error (default: info).
// Formats: text (colored, default) or json.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls how New builds a logger.
type Options struct {
	Level  slog.Level
	Format string    // FormatText or FormatJSON
	Output io.Writer // defaults to os.Stderr
}

// New builds a logger. Text output is colored by tint; JSON output uses the
// standard JSON handler so log collectors can parse it.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(opts.Format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: true,
		}))
	}

	return slog.New(tint.NewHandler(out, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    out != os.Stderr && out != os.Stdout,
	}))
}

// Setup builds a logger from a level name and a format and installs it as
// the slog default. An unknown level falls back to INFO.
func Setup(level, format string) *slog.Logger {
	parsed, _ := ParseLevel(level)
	logger := New(Options{Level: parsed, Format: format})
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level. An empty name is INFO;
// an unknown name is INFO plus an error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
