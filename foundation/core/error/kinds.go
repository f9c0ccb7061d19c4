// File: kinds.go
// Title: Command Pipeline Error Kinds
// Description: Constructors for syntax, semantic, parameter and tree
//              failures raised while parsing and running commands.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package error

import "fmt"

// Constructors for the failure kinds of the command pipeline. Each kind
// maps to exactly one code so callers can branch with HasCode.

// Syntax reports a line that the lexer or parser rejected.
func Syntax(format string, args ...interface{}) *Error {
	e := New(fmt.Sprintf(format, args...)).WithCode(CodeRCLSyntax)
	e.stackTrace = captureStackTrace(2)
	return e
}

// FSMInvariant reports a parser state machine that ended outside its
// accept set after consuming all input. It is never the caller's fault.
func FSMInvariant(format string, args ...interface{}) *Error {
	e := New(fmt.Sprintf(format, args...)).WithCode(CodeRCLFSMInvariant)
	e.stackTrace = captureStackTrace(2)
	return e
}

// Semantic reports a well-formed command that violates the resource schema.
func Semantic(format string, args ...interface{}) *Error {
	e := New(fmt.Sprintf(format, args...)).WithCode(CodeRCLSemantic)
	e.stackTrace = captureStackTrace(2)
	return e
}

// ConfigLocked reports a mutating command while modification is disabled.
func ConfigLocked() *Error {
	return New("modifying is not allowed").WithCode(CodeRCLConfigLocked)
}

// ParamValidation reports a missing or malformed parameter.
func ParamValidation(format string, args ...interface{}) *Error {
	e := New(fmt.Sprintf(format, args...)).WithCode(CodeRCLParamValidation)
	e.stackTrace = captureStackTrace(2)
	return e
}

// NotFound reports a referenced resource that does not exist.
func NotFound(kind, name string) *Error {
	return New(fmt.Sprintf("%s %s not found", kind, name)).
		WithCode(CodeNotFound).
		WithDetail("resource_type", kind).
		WithDetail("name", name)
}

// AlreadyExists reports a create for a name that is taken.
func AlreadyExists(kind, name string) *Error {
	return New(fmt.Sprintf("%s %s already exists", kind, name)).
		WithCode(CodeDuplicateEntry).
		WithDetail("resource_type", kind).
		WithDetail("name", name)
}

// InUse reports a graceful remove of a resource that is still referenced.
func InUse(kind, name, by string) *Error {
	return New(fmt.Sprintf("%s %s is still in use by %s", kind, name, by)).
		WithCode(CodeResourceLocked).
		WithDetail("resource_type", kind).
		WithDetail("name", name)
}

// Handler wraps any other failure raised while a handler runs.
func Handler(err error, operation string) *Error {
	if err == nil {
		return nil
	}
	if GetCode(err) != CodeUnknown {
		return Wrap(err, operation)
	}
	return Wrap(err, operation).WithCode(CodeRCLHandler)
}

// IsSyntax reports a syntax failure, including FSM invariant violations.
func IsSyntax(err error) bool {
	return HasCode(err, CodeRCLSyntax) || HasCode(err, CodeRCLFSMInvariant)
}

// IsSemantic reports a semantic failure, including a locked configuration.
func IsSemantic(err error) bool {
	return HasCode(err, CodeRCLSemantic) || HasCode(err, CodeRCLConfigLocked)
}
