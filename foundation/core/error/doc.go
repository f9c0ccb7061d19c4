// Package error provides structured error handling for netplane.
//
// Package: error
// Title: netplane Error Handling Framework
// Description: This package implements structured errors with codes,
//              severities, details and causes. The command pipeline reports
//              every rejection through one of the kind constructors in
//              kinds.go so callers can branch on the code.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-19 v0.2.0: Command language failure kinds
//
// Usage:
//
//	import mdwerror "github.com/msto63/netplane/foundation/core/error"
//
//	err := mdwerror.Semantic("cannot add %s into %s", "server", "upstream")
//	if mdwerror.IsSemantic(err) {
//	    // reject the command
//	}
//
//	wrapped := mdwerror.Wrap(err, "validate").WithOperation("validate")
//	mdwerror.HasCode(wrapped, mdwerror.CodeRCLSemantic) // true
package error
