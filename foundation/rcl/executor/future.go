// File: future.go
// Title: Command Future
// Description: Completion handle for a submitted command with blocking and
//              context-bound waits.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package executor

import (
	"context"
	"time"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
)

// Future is the pending outcome of a submitted command. It completes
// exactly once.
type Future struct {
	id        string
	command   string
	submitted time.Time
	done      chan struct{}
	result    *CmdResult
	err       error
}

func newFuture(id, command string) *Future {
	return &Future{id: id, command: command, submitted: time.Now(), done: make(chan struct{})}
}

func failedFuture(id, command string, err error) *Future {
	f := newFuture(id, command)
	f.complete(nil, err)
	return f
}

func (f *Future) complete(result *CmdResult, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// ID returns the request id assigned on submission
func (f *Future) ID() string { return f.id }

// Command returns the canonical text of the submitted command
func (f *Future) Command() string { return f.command }

// Submitted returns the submission time
func (f *Future) Submitted() time.Time { return f.submitted }

// Done is closed once the command finished
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the command finished
func (f *Future) Wait() (*CmdResult, error) {
	<-f.done
	return f.result, f.err
}

// WaitContext is Wait bounded by ctx. Giving up does not cancel the
// command; it still runs to completion on the control plane.
func (f *Future) WaitContext(ctx context.Context) (*CmdResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, mdwerror.Wrap(ctx.Err(), "waiting for command result").
			WithCode(mdwerror.CodeTimeout).
			WithRequestID(f.id).
			WithDetail("command", f.command)
	}
}

// FailedFuture returns a completed future carrying err. It is used for
// commands rejected before they reach the control plane.
func FailedFuture(command string, err error) *Future {
	return failedFuture("", command, err)
}
