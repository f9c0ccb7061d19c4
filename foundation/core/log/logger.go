// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the Logger type on top of a zapcore.Core. The
//              public surface (Fields, WithField, Info, Audit, ...) stays
//              independent of zap so callers never import it directly.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-19 v0.2.0: zap backend, shared level across derived loggers

package log

import (
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
)

// Fields holds structured key/value pairs attached to a log entry
type Fields map[string]interface{}

// Logger represents a structured logger with contextual information
type Logger struct {
	core  zapcore.Core
	level *atomicLevel
	name  string

	contextFields Fields
	requestID     string

	enableCaller bool
}

// Config represents logger configuration
type Config struct {
	Level        Level
	Format       Format
	Output       io.Writer
	Name         string
	EnableCaller bool
}

// New creates a new logger writing JSON to stdout at the default level
func New() *Logger {
	return NewWithConfig(Config{Level: DefaultLevel(), Format: FormatJSON})
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	core := zapcore.NewCore(
		newEncoder(config.Format),
		zapcore.Lock(zapcore.AddSync(output)),
		zap.LevelEnablerFunc(func(zapcore.Level) bool { return true }),
	)
	return &Logger{
		core:          core,
		level:         newAtomicLevel(config.Level),
		name:          config.Name,
		contextFields: make(Fields),
		enableCaller:  config.EnableCaller,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{
		core:          zapcore.NewNopCore(),
		level:         newAtomicLevel(LevelFatal),
		contextFields: make(Fields),
	}
}

// WithName returns a derived logger with the given name
func (l *Logger) WithName(name string) *Logger {
	clone := l.clone()
	clone.name = name
	return clone
}

// WithField returns a derived logger that adds a field to all entries
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.clone()
	clone.contextFields[key] = value
	return clone
}

// WithFields returns a derived logger that adds fields to all entries
func (l *Logger) WithFields(fields Fields) *Logger {
	clone := l.clone()
	for k, v := range fields {
		clone.contextFields[k] = v
	}
	return clone
}

// WithRequestID returns a derived logger bound to a request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	clone := l.clone()
	clone.requestID = requestID
	return clone
}

// Trace logs a trace level message
func (l *Logger) Trace(message string, fields ...Fields) {
	l.log(LevelTrace, message, nil, fields...)
}

// Debug logs a debug level message
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(LevelDebug, message, nil, fields...)
}

// Info logs an info level message
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(LevelInfo, message, nil, fields...)
}

// Warn logs a warning level message
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(LevelWarn, message, nil, fields...)
}

// Error logs an error level message
func (l *Logger) Error(message string, fields ...Fields) {
	l.log(LevelError, message, nil, fields...)
}

// Fatal logs a fatal level message and exits the program
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	_ = l.Sync()
	os.Exit(1)
}

// Audit logs an audit level message (always logged regardless of level)
func (l *Logger) Audit(message string, fields ...Fields) {
	l.log(LevelAudit, message, nil, fields...)
}

// ErrorWithErr logs an error with an error object
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs a warning with an error object
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs an error at the level matching its severity
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	fields := Fields{
		"error_code":     mdwerror.GetCode(err).String(),
		"error_severity": mdwerror.GetSeverity(err).String(),
	}
	switch mdwerror.GetSeverity(err) {
	case mdwerror.SeverityLow:
		l.log(LevelInfo, err.Error(), err, fields)
	case mdwerror.SeverityMedium:
		l.log(LevelWarn, err.Error(), err, fields)
	default:
		l.log(LevelError, err.Error(), err, fields)
	}
}

// StartTimer creates and starts a new performance timer
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// IsLevelEnabled returns true if the given level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.level.get())
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	return l.level.get()
}

// SetLevel changes the level of this logger and every logger derived from it
func (l *Logger) SetLevel(level Level) {
	l.level.set(level)
}

// Sync flushes buffered output
func (l *Logger) Sync() error {
	return l.core.Sync()
}

func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	if !level.ShouldLog(l.level.get()) {
		return
	}

	entry := zapcore.Entry{
		Level:      level.zap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    message,
	}
	if l.enableCaller {
		if pc, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = zapcore.NewEntryCaller(pc, file, line, true)
		}
	}

	ce := l.core.Check(entry, nil)
	if ce == nil {
		return
	}
	ce.Write(l.zapFields(err, fields)...)
}

func (l *Logger) zapFields(err error, fields []Fields) []zap.Field {
	merged := make(Fields, len(l.contextFields))
	for k, v := range l.contextFields {
		merged[k] = v
	}
	for _, set := range fields {
		for k, v := range set {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys)+2)
	if l.requestID != "" {
		out = append(out, zap.String("request_id", l.requestID))
	}
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	if err != nil {
		out = append(out, zap.String("error", err.Error()))
	}
	return out
}

func (l *Logger) clone() *Logger {
	clone := &Logger{
		core:          l.core,
		level:         l.level,
		name:          l.name,
		requestID:     l.requestID,
		enableCaller:  l.enableCaller,
		contextFields: make(Fields, len(l.contextFields)+1),
	}
	for k, v := range l.contextFields {
		clone.contextFields[k] = v
	}
	return clone
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New()
)

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Info logs an info message using the default logger
func Info(message string, fields ...Fields) {
	GetDefault().Info(message, fields...)
}

// Warn logs a warning message using the default logger
func Warn(message string, fields ...Fields) {
	GetDefault().Warn(message, fields...)
}

// Error logs an error message using the default logger
func Error(message string, fields ...Fields) {
	GetDefault().Error(message, fields...)
}
