package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"assetsync/internal/config"
)

// LogFileName is the file written inside the configured log directory.
const LogFileName = "assetsync.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives console or JSON output. Defaults to stderr so command
	// output on stdout stays machine readable.
	Writer io.Writer
	// File, when set, additionally receives every record as JSON at debug level.
	File        io.Writer
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(opts.Level))

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var primary slog.Handler
	switch format {
	case "json":
		primary = newJSONHandler(writer, levelVar, addSource)
	case "console":
		primary = newConsoleHandler(writer, levelVar, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if opts.File == nil {
		return slog.New(primary), nil
	}
	fileLevel := new(slog.LevelVar)
	fileLevel.Set(slog.LevelDebug)
	return slog.New(newFanoutHandler(primary, newJSONHandler(opts.File, fileLevel, true))), nil
}

// NewFromConfig creates a logger from the [logging] and [paths] sections.
// Verbose forces debug output on the console. The returned close function
// releases the log file when one was opened.
func NewFromConfig(cfg *config.Config, verbose bool) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	opts := Options{Level: "warn", Format: "console"}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	if verbose {
		opts.Level = "debug"
	}

	closeFn := noop
	if cfg != nil && cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, noop, fmt.Errorf("ensure log directory: %w", err)
		}
		path := filepath.Join(cfg.Paths.LogDir, LogFileName)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, noop, fmt.Errorf("open log file %s: %w", path, err)
		}
		opts.File = file
		closeFn = file.Close
	}

	logger, err := New(opts)
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return logger, closeFn, nil
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
