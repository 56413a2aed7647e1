package app

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the application logger. The TUI owns the terminal, so logs go to
// a file (or any other writer) rather than stderr. A nil *Logger is valid
// and discards everything, which keeps call sites free of nil checks.
type Logger struct {
	backend *log.Logger
	closer  io.Closer
}

// NewLogger writes structured key=value logs to w at the given level.
// Unknown level strings fall back to info.
func NewLogger(w io.Writer, level string) *Logger {
	backend := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLogLevel(level),
	})
	return &Logger{backend: backend}
}

// OpenFileLogger appends to the log file at path, creating it if needed.
// The caller owns Close.
func OpenFileLogger(path, level string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(f, level)
	logger.closer = f
	return logger, nil
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	if l == nil || l.backend == nil {
		return
	}
	l.backend.Debug(msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	if l == nil || l.backend == nil {
		return
	}
	l.backend.Info(msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	if l == nil || l.backend == nil {
		return
	}
	l.backend.Warn(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	if l == nil || l.backend == nil {
		return
	}
	l.backend.Error(msg, keyvals...)
}

// Close releases the underlying file when the logger owns one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
