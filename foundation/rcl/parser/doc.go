// File: doc.go
// Title: RCL Parser Package Documentation
// Description: Lexer and finite-state parser for the resource command
//              language.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

/*
Package parser turns one line of the resource command language into an
ast.Command.

The lexer splits on whitespace; there is no quoting, so names and values can
never contain spaces. The parser is a table-driven state machine with one
token of lookahead:

	action resourceChain (preposition resourceChain)? flag* (param value)*
	resourceChain := resourceType name? ("in" resourceType name)*

A Parser holds no per-call state and may be shared between goroutines.
*/
package parser
