package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path of the log file. Empty uses DefaultLogPath.
	FilePath string
	// MaxSizeMB is the maximum file size in MB before rotation.
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep.
	MaxFiles int
	// WriteToStderr mirrors records to stderr in addition to the file.
	WriteToStderr bool
}

// DefaultConfig returns the defaults for file logging: info level, the
// default log path, 10 MB files, 5 rotations, no stderr mirror.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

// Setup initializes file-based logging. It returns the configured logger
// and a cleanup function that flushes and closes the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultLogPath()
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: LevelFromString(cfg.Level),
	})

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return slog.New(handler), cleanup, nil
}

// LevelFromString converts a level name to a slog.Level. Unknown names
// resolve to info.
func LevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
