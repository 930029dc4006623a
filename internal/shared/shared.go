// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a logger writing to the file at path, creating parent directories as needed.
// The returned function closes the file.
func NewFileLogger(path string) (*log.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), f.Close, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ParseLogLevel maps a config level name to a [log.Level], falling back to [log.InfoLevel].
func ParseLogLevel(name string) log.Level {
	if name == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// NopLogger returns a logger that discards everything. Used as the default for optional loggers.
func NopLogger() *log.Logger {
	return log.New(io.Discard)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// NormalizeTrackKey builds a case and whitespace insensitive lookup key from a title and artist.
func NormalizeTrackKey(title, artist string) string {
	return normalize(title) + "|" + normalize(artist)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
