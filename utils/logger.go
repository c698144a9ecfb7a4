package utils

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// std is the process-wide logger used by the helpers below
var std = log.New()

func init() {
	std.SetFormatter(&log.JSONFormatter{TimestampFormat: timestampFormat})
	std.SetOutput(os.Stdout)
	std.SetLevel(log.InfoLevel)
}

// Configure sets the log level and output format ("json" or "text").
// Unknown values keep the current setting and are reported.
func Configure(level, format string) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		std.SetFormatter(&log.JSONFormatter{TimestampFormat: timestampFormat})
	case "text":
		std.SetFormatter(&log.TextFormatter{TimestampFormat: timestampFormat, FullTimestamp: true})
	default:
		Warn("unknown log format, keeping current", map[string]any{"format": format})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		Warn("unknown log level, keeping current", map[string]any{"level": level})
		return
	}
	std.SetLevel(lvl)
}

// SetOutput redirects log output, mostly for tests
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Debug logs a message at debug level with optional fields
func Debug(message string, fields map[string]any) {
	std.WithFields(fields).Debug(message)
}

// Info logs a message at info level with optional fields
func Info(message string, fields map[string]any) {
	std.WithFields(fields).Info(message)
}

// Warn logs a message at warning level with optional fields
func Warn(message string, fields map[string]any) {
	std.WithFields(fields).Warn(message)
}

// Error logs a message at error level with optional fields
func Error(message string, fields map[string]any) {
	std.WithFields(fields).Error(message)
}

// Fatal logs a message at fatal level and exits the application
func Fatal(message string, fields map[string]any) {
	std.WithFields(fields).Fatal(message)
}
