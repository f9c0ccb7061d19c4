// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors. Rejected commands are low
//              severity, handler and storage faults high, and broken parser
//              invariants critical.
// Author: msto63
// Version: v0.1.1
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-19 v0.1.1: Trimmed to the levels used by the command pipeline

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a rejected command or invalid user input
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that affects functionality but has workarounds
	SeverityMedium

	// SeverityHigh indicates a failing collaborator such as a handler or the audit store
	SeverityHigh

	// SeverityCritical indicates a broken internal invariant
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}
