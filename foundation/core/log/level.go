// File: level.go
// Title: Log Level Definitions
// Description: Defines log levels and their mapping onto zap levels. Trace
//              and audit sit outside zap's built-in range and are rendered
//              by the level encoder in logger.go.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with standard log levels
// - 2026-10-19 v0.2.0: zap level mapping, shared atomic level

package log

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap/zapcore"
)

// Level represents the importance level of a log message
type Level int

const (
	// LevelTrace is the most verbose level, used for per-token parser output
	LevelTrace Level = iota

	// LevelDebug provides detailed information for debugging purposes
	LevelDebug

	// LevelInfo represents general informational messages
	LevelInfo

	// LevelWarn indicates rejected input or degraded operation
	LevelWarn

	// LevelError represents error conditions that need attention
	LevelError

	// LevelFatal represents critical errors that cause program termination
	LevelFatal

	// LevelAudit records executed commands and is always written
	LevelAudit
)

const (
	zapTraceLevel = zapcore.DebugLevel - 1
	zapAuditLevel = zapcore.FatalLevel + 1
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	case LevelAudit:
		return "audit"
	default:
		return "unknown"
	}
}

// ShouldLog returns true if this level should be logged given the minimum level
func (l Level) ShouldLog(minLevel Level) bool {
	if l == LevelAudit {
		return true
	}
	return l >= minLevel
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelTrace:
		return zapTraceLevel
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	case LevelAudit:
		return zapAuditLevel
	default:
		return zapcore.InfoLevel
	}
}

// encodeLevel renders the two custom zap levels by name
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapTraceLevel:
		enc.AppendString("trace")
	case zapAuditLevel:
		enc.AppendString("audit")
	default:
		zapcore.LowercaseLevelEncoder(l, enc)
	}
}

// ParseLevel parses a string into a log level
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "trc":
		return LevelTrace, nil
	case "debug", "dbg":
		return LevelDebug, nil
	case "info", "inf", "information", "":
		return LevelInfo, nil
	case "warn", "wrn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	case "fatal", "ftl":
		return LevelFatal, nil
	case "audit", "aud":
		return LevelAudit, nil
	default:
		return LevelInfo, &ParseError{Input: level, Type: "level"}
	}
}

// ParseError represents an error parsing a log configuration value
type ParseError struct {
	Input string
	Type  string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}

// DefaultLevel returns the default log level for production
func DefaultLevel() Level {
	return LevelInfo
}

// atomicLevel is shared by a logger and every logger derived from it, so a
// level change on the root reaches all components.
type atomicLevel struct {
	v atomic.Int32
}

func newAtomicLevel(l Level) *atomicLevel {
	a := &atomicLevel{}
	a.v.Store(int32(l))
	return a
}

func (a *atomicLevel) get() Level  { return Level(a.v.Load()) }
func (a *atomicLevel) set(l Level) { a.v.Store(int32(l)) }
