// File: doc.go
// Title: Resource Command Language Documentation
// Description: Overview of the resource command language packages.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial documentation
// - 2026-10-19 v0.2.0: Resource command language

/*
Package rcl runs the resource command language: one line per command,
describing an action on a typed resource placed in a chain of containers.

	action resourceType name? (in resourceType name)* (to|from resourceChain)? flag* (param value)*

Examples:

	add tcp-lb lb0 address 0.0.0.0:80 upstream ups0
	a el el1 to elg elg1
	list-detail server in server-group sg0
	L arp in vpc 1314 in sw sw0
	force-remove connection 10.0.0.1:5000/127.0.0.1:80 from tl lb0

The pipeline is split across subpackages:

  - parser: lexer and table-driven state machine producing an ast.Command
  - registry: one schema row per resource type with its parameter checks
  - validator: semantic checks against the schema
  - executor: dispatch to a Handler on the single control-plane goroutine

Engine ties them together. Parsing and validation run on the calling
goroutine; every handler call runs on the control plane in submission
order, and results come back through a Future.
*/
package rcl
