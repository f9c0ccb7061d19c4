// Package log provides structured logging for netplane.
//
// Package: log
// Title: netplane Structured Logging
// Description: Structured logging with contextual fields, levels including
//              trace and audit, and JSON or console output. Entries are
//              encoded and written by zap.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-19 v0.2.0: zap backend
//
// Usage:
//
//	import mdwlog "github.com/msto63/netplane/foundation/core/log"
//
//	logger := mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelInfo}).
//	    WithField("component", "control-plane")
//
//	logger.Info("command executed", mdwlog.Fields{"command": "add upstream ups0"})
//	logger.Audit("resource created", mdwlog.Fields{"type": "upstream", "name": "ups0"})
package log
