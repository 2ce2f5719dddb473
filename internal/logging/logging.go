// Package logging builds the charmbracelet/log logger used across todo.
// The terminal belongs to the UI, so the program logs to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileName is the log file created inside the data directory.
const FileName = "todo.log"

// Prefix tags every line written by todo.
const Prefix = "todo"

// ParseLevel parses a string log level. Unknown values fall back to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
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

// ParseFormatter parses a formatter name. Unknown values fall back to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New creates a logger writing to w.
func New(w io.Writer, level, format string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       ParseFormatter(format),
		ReportTimestamp: true,
		Prefix:          Prefix,
	})
}

// Discard returns a logger that drops everything. Stores use it when no
// logger is supplied.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// FileLogger is a logger bound to an open log file.
type FileLogger struct {
	*log.Logger
	Path string
	file *os.File
}

// Open appends to <dir>/todo.log, creating the directory if needed.
func Open(dir, level, format string) (*FileLogger, error) {
	if dir == "" {
		return nil, fmt.Errorf("log dir is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileLogger{
		Logger: New(file, level, format),
		Path:   path,
		file:   file,
	}, nil
}

// Close closes the log file.
func (l *FileLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
