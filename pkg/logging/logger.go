package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// Prefix marks every text log line from pixelroll.
	Prefix = "🔀 "

	EnvLogLevel = "PIXELROLL_LOG_LEVEL"
	EnvJSONLog  = "PIXELROLL_JSON_LOG"
	EnvLogPath  = "PIXELROLL_LOG_PATH"

	DefaultLevel = "warn"
)

// NewLogger creates a new hclog logger with standard settings.
//
// level may carry a "json:" prefix ("json:debug") to force JSON output;
// PIXELROLL_JSON_LOG=1 does the same for any level.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	level, jsonFormat := ParseLevel(level)
	if os.Getenv(EnvJSONLog) == "1" {
		jsonFormat = true
	}

	// Add prefix for non-JSON output
	if !jsonFormat {
		output = NewPrefixWriter(Prefix, output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// ParseLevel splits an optional "json" / "json:<level>" prefix from level.
func ParseLevel(level string) (string, bool) {
	if !strings.HasPrefix(level, "json") {
		return level, false
	}
	if _, actual, ok := strings.Cut(level, ":"); ok && actual != "" {
		return actual, true
	}
	return "info", true
}

// OpenOutput returns the file named by PIXELROLL_LOG_PATH opened for append,
// or fallback when unset or unopenable. The returned closer is never nil.
func OpenOutput(fallback io.Writer) (io.Writer, func() error) {
	logPath := os.Getenv(EnvLogPath)
	if logPath == "" {
		return fallback, func() error { return nil }
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fallback, func() error { return nil }
	}
	return file, file.Close
}
