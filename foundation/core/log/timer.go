// File: timer.go
// Title: Performance Timer
// Description: Measures the duration of an operation and logs it on Stop.
// Author: msto63
// Version: v0.1.1
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2026-10-19 v0.1.1: Reduced to start, stop and error stop

package log

import "time"

// Timer represents a performance timer for measuring operation duration
type Timer struct {
	logger    *Logger
	operation string
	startTime time.Time
	fields    Fields
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		fields:    make(Fields),
		level:     LevelDebug,
	}
}

// WithField adds a field to be logged when the timer completes
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Stop logs the elapsed time once and returns it
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	if t.stopped {
		return elapsed
	}
	t.stopped = true
	fields := Fields{"operation": t.operation, "duration_ms": elapsed.Milliseconds()}
	for k, v := range t.fields {
		fields[k] = v
	}
	t.logger.log(t.level, "operation completed", nil, fields)
	return elapsed
}

// StopWithError logs the elapsed time together with a failure
func (t *Timer) StopWithError(err error) time.Duration {
	if err == nil {
		return t.Stop()
	}
	elapsed := t.Elapsed()
	if t.stopped {
		return elapsed
	}
	t.stopped = true
	fields := Fields{"operation": t.operation, "duration_ms": elapsed.Milliseconds()}
	for k, v := range t.fields {
		fields[k] = v
	}
	t.logger.log(LevelWarn, "operation failed", err, fields)
	return elapsed
}
