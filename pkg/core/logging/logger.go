// Package logging builds netplane loggers from configuration on top of
// the foundation logger.
package logging

import (
	"strings"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
)

// Level represents log severity for the key/value logger
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// parseLevel converts a config level to mdwlog.Level, defaulting to info
func parseLevel(level string) mdwlog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return mdwlog.LevelTrace
	case "debug":
		return mdwlog.LevelDebug
	case "warn", "warning":
		return mdwlog.LevelWarn
	case "error":
		return mdwlog.LevelError
	case "fatal":
		return mdwlog.LevelFatal
	default:
		return mdwlog.LevelInfo
	}
}
