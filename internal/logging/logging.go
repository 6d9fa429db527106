// Package logging builds the leveled stderr logger shared by the engine
// layer and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// LevelEnv overrides the configured log level.
const LevelEnv = "S3TOOLS_LOG_LEVEL"

const defaultLevel = log.WarnLevel

// New returns a logger writing to w at the given level name. Unknown or empty
// names fall back to warn.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "s3tools",
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

// Discard returns a logger that drops everything. Packages use it when no
// logger is injected.
func Discard() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

// Or returns logger, or a discarding logger when logger is nil.
func Or(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

// ParseLevel maps a level name to a log.Level, falling back to warn.
func ParseLevel(name string) log.Level {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	switch trimmed {
	case "warning":
		return log.WarnLevel
	case "":
		return defaultLevel
	}
	level, err := log.ParseLevel(trimmed)
	if err != nil {
		return defaultLevel
	}
	return level
}

// ResolveLevel picks the env override first, then the configured value.
func ResolveLevel(configured string) string {
	if env := strings.TrimSpace(os.Getenv(LevelEnv)); env != "" {
		return env
	}
	return configured
}
