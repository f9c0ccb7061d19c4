// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used across netplane. The RCL codes
//              classify failures of the resource command language pipeline
//              (lexing, parsing, validation, dispatch) so callers can react
//              to the kind of failure without parsing messages.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: Replaced service codes with command language codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Storage
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeDuplicateEntry Code = "DUPLICATE_ENTRY"

	// Resource state
	CodeResourceLocked   Code = "RESOURCE_LOCKED"
	CodeInvalidOperation Code = "INVALID_OPERATION"

	// Service
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"

	// Resource command language
	CodeRCLSyntax          Code = "RCL_SYNTAX"
	CodeRCLFSMInvariant    Code = "RCL_FSM_INVARIANT"
	CodeRCLSemantic        Code = "RCL_SEMANTIC"
	CodeRCLConfigLocked    Code = "RCL_CONFIG_LOCKED"
	CodeRCLParamValidation Code = "RCL_PARAM_VALIDATION"
	CodeRCLHandler         Code = "RCL_HANDLER"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout,
		CodeDatabaseError, CodeDuplicateEntry,
		CodeResourceLocked, CodeInvalidOperation,
		CodeServiceUnavailable,
		CodeRCLSyntax, CodeRCLFSMInvariant, CodeRCLSemantic, CodeRCLConfigLocked,
		CodeRCLParamValidation, CodeRCLHandler,
		CodeConfigError, CodeInvalidConfig:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeRCLSyntax, CodeRCLFSMInvariant:
		return "syntax"
	case CodeRCLSemantic, CodeRCLConfigLocked:
		return "semantic"
	case CodeRCLParamValidation, CodeInvalidInput:
		return "validation"
	case CodeNotFound, CodeDuplicateEntry, CodeResourceLocked, CodeInvalidOperation, CodeRCLHandler:
		return "handler"
	case CodeDatabaseError:
		return "storage"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	default:
		return "generic"
	}
}

// IsUserError reports whether the code describes a rejected command rather
// than a fault of the process itself.
func (c Code) IsUserError() bool {
	switch c {
	case CodeRCLSyntax, CodeRCLSemantic, CodeRCLConfigLocked, CodeRCLParamValidation,
		CodeNotFound, CodeDuplicateEntry, CodeResourceLocked, CodeInvalidInput:
		return true
	default:
		return false
	}
}

// GetSeverityFromCode returns the default severity for a code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeRCLFSMInvariant, CodeInternal:
		return SeverityCritical
	case CodeDatabaseError, CodeServiceUnavailable, CodeRCLHandler:
		return SeverityHigh
	case CodeRCLSyntax, CodeRCLSemantic, CodeRCLConfigLocked, CodeRCLParamValidation,
		CodeNotFound, CodeDuplicateEntry, CodeResourceLocked, CodeInvalidInput:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
