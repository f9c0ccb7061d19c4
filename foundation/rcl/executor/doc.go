// File: doc.go
// Title: RCL Executor Package Documentation
// Description: Dispatch of validated commands to the resource handler on a
//              single control-plane goroutine.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

/*
Package executor runs validated commands.

All mutations and reads of the resource tree happen on one goroutine owned
by a ControlPlane. Callers hand commands over with Executor.Submit, which
never blocks, and receive a Future that completes with a CmdResult or a
typed error. Commands run one at a time in submission order and cannot be
cancelled once submitted; a caller that needs a deadline bounds its own wait
with Future.WaitContext.

The Dispatcher maps (resource type, action) through the schema row to one
Handler call and wraps the return value into the three CmdResult views.
*/
package executor
