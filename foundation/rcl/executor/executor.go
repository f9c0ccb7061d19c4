// File: executor.go
// Title: RCL Command Executor
// Description: Submits validated commands to the control plane and completes
//              their futures. Observers are told about every outcome.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-19 v0.2.0: Single control-plane goroutine with futures

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

// Outcome describes one finished command
type Outcome struct {
	RequestID string
	Source    string
	Command   string
	Action    ast.Action
	Type      ast.ResourceType
	Submitted time.Time
	Duration  time.Duration
	Result    *CmdResult
	Err       error
}

// Observer is notified on the control-plane goroutine after each command
// and before its future completes. Implementations must return quickly.
type Observer interface {
	CommandExecuted(o Outcome)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(o Outcome)

// CommandExecuted calls f
func (f ObserverFunc) CommandExecuted(o Outcome) { f(o) }

// Options configures an Executor
type Options struct {
	Logger   *mdwlog.Logger
	Registry *registry.Registry
	Handler  Handler
	// ControlPlane is shared with other producers of control-plane work.
	// When nil the executor starts and owns one.
	ControlPlane *ControlPlane
	Observers    []Observer
}

// Executor hands commands to the control plane
type Executor struct {
	dispatcher *Dispatcher
	plane      *ControlPlane
	ownsPlane  bool
	observers  []Observer
	logger     *mdwlog.Logger
}

// New creates an executor
func New(opts Options) (*Executor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	logger = logger.WithField("component", "rcl-executor")

	dispatcher, err := NewDispatcher(opts.Registry, opts.Handler, logger)
	if err != nil {
		return nil, err
	}

	e := &Executor{
		dispatcher: dispatcher,
		plane:      opts.ControlPlane,
		observers:  opts.Observers,
		logger:     logger,
	}
	if e.plane == nil {
		e.plane = NewControlPlane(logger)
		e.ownsPlane = true
	}

	logger.Info("executor initialized", mdwlog.Fields{"observers": len(e.observers)})
	return e, nil
}

// ControlPlane returns the loop the executor runs on
func (e *Executor) ControlPlane() *ControlPlane { return e.plane }

// Submit enqueues a validated command and returns immediately
func (e *Executor) Submit(cmd *ast.Command) *Future {
	return e.SubmitFrom("", cmd)
}

// SubmitFrom is Submit with a source label for observers, e.g. "grpc"
func (e *Executor) SubmitFrom(source string, cmd *ast.Command) *Future {
	id := uuid.NewString()
	text := cmd.String()
	future := newFuture(id, text)

	err := e.plane.Post(func(ctx context.Context) {
		start := time.Now()
		result, err := e.dispatch(ctx, cmd)
		if err != nil {
			if me, ok := err.(*mdwerror.Error); ok {
				err = me.WithRequestID(id)
			}
		}
		// observers see the outcome before any waiter does
		e.notify(Outcome{
			RequestID: id,
			Source:    source,
			Command:   text,
			Action:    cmd.Action,
			Type:      cmd.Resource.Type,
			Submitted: future.submitted,
			Duration:  time.Since(start),
			Result:    result,
			Err:       err,
		})
		future.complete(result, err)
	})
	if err != nil {
		return failedFuture(id, text, err)
	}
	return future
}

// Execute submits cmd and waits for it without a deadline
func (e *Executor) Execute(cmd *ast.Command) (*CmdResult, error) {
	return e.Submit(cmd).Wait()
}

// ExecuteContext submits cmd and waits for it until ctx is done
func (e *Executor) ExecuteContext(ctx context.Context, cmd *ast.Command) (*CmdResult, error) {
	return e.Submit(cmd).WaitContext(ctx)
}

// Close drains the queue and stops the control plane if the executor
// started it
func (e *Executor) Close() {
	if e.ownsPlane {
		e.plane.Close()
	}
}

func (e *Executor) dispatch(ctx context.Context, cmd *ast.Command) (result *CmdResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panicked", mdwlog.Fields{"command": cmd.String(), "panic": fmt.Sprint(r)})
			result = nil
			err = mdwerror.New(fmt.Sprintf("handler panicked: %v", r)).
				WithCode(mdwerror.CodeRCLHandler).
				WithOperation(cmd.Action.Full() + " " + cmd.Resource.Type.Full())
		}
	}()
	return e.dispatcher.Dispatch(ctx, cmd)
}

func (e *Executor) notify(o Outcome) {
	for _, obs := range e.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Warn("observer panicked", mdwlog.Fields{"panic": fmt.Sprint(r)})
				}
			}()
			obs.CommandExecuted(o)
		}()
	}
}
