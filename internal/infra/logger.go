package infra

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new slog.Logger with log rotation support.
// Rotation settings come from the logging config section; zero values
// fall back to sensible defaults.
func NewLogger(cfg *Config) *slog.Logger {
	lc := cfg.Logging
	if lc.Dir == "" {
		lc.Dir = "logs"
	}
	if lc.MaxSizeMB <= 0 {
		lc.MaxSizeMB = 10
	}
	if lc.MaxBackups <= 0 {
		lc.MaxBackups = 3
	}
	if lc.MaxAgeDays <= 0 {
		lc.MaxAgeDays = 28
	}

	if err := os.MkdirAll(lc.Dir, 0755); err != nil {
		// Fallback to stderr if directory creation fails
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	// Setup lumberjack logger for file rotation
	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(lc.Dir, "tradesim.log"),
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   lc.Compress,
	}

	// Multi-writer: Log to both file and stdout
	writer := io.MultiWriter(os.Stdout, fileLogger)

	// Determine log level
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(writer, opts))
}
