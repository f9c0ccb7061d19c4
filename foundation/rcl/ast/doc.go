// File: doc.go
// Title: RCL Abstract Syntax Tree Package Documentation
// Description: Defines the closed enums of the resource command language
//              and the Resource and Command values produced by the parser.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

/*
Package ast defines the values of the resource command language (RCL).

Every keyword of the language belongs to one closed enum: Action,
ResourceType, Preposition, Flag or Param. Each enum value has a short code
and a full name; the Resolve functions accept either, trying the short code
first, through maps built once at package initialisation.

A parsed line becomes a Command. Its String method renders the canonical
form (full names only), which parses back to an equal Command and is what
gets written to logs and the audit trail.
*/
package ast
