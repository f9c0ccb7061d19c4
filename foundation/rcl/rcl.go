// File: rcl.go
// Title: RCL Engine
// Description: Ties lexer, parser, validator and executor into one pipeline
//              for command lines. Parse and validate run on the caller's
//              goroutine; execution runs on the control plane.
// Author: msto63
// Version: v0.2.1
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial high-level engine implementation
// - 2026-10-19 v0.2.0: Resource command language pipeline
// - 2026-10-19 v0.2.1: Validate programmatic submissions

package rcl

import (
	"context"
	"fmt"
	"sync/atomic"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/executor"
	"github.com/msto63/netplane/foundation/rcl/parser"
	"github.com/msto63/netplane/foundation/rcl/registry"
	"github.com/msto63/netplane/foundation/rcl/validator"
)

// CmdResult is the outcome of a successful command
type CmdResult = executor.CmdResult

// Future is a pending command outcome
type Future = executor.Future

// Options configures the engine
type Options struct {
	Logger  *mdwlog.Logger
	Handler executor.Handler
	// ControlPlane lets the handler and the engine share one loop. When
	// nil the engine starts its own.
	ControlPlane   *executor.ControlPlane
	Observers      []executor.Observer
	MaxInputLength int
	// ModifyDisabled starts the engine with mutations locked
	ModifyDisabled bool
}

// Engine runs command lines end to end
type Engine struct {
	parser    *parser.Parser
	registry  *registry.Registry
	validator *validator.Validator
	executor  *executor.Executor
	modify    atomic.Bool
	logger    *mdwlog.Logger
}

// New creates an engine
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	logger := opts.Logger.WithField("component", "rcl-engine")

	reg, err := registry.New(registry.Options{Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource registry: %w", err)
	}

	p, err := parser.New(parser.Options{Logger: opts.Logger, MaxInputLength: opts.MaxInputLength})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize parser: %w", err)
	}

	e := &Engine{parser: p, registry: reg, logger: logger}
	e.modify.Store(!opts.ModifyDisabled)

	e.validator, err = validator.New(validator.Options{
		Logger:        opts.Logger,
		Registry:      reg,
		ModifyEnabled: e.modify.Load,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize validator: %w", err)
	}

	e.executor, err = executor.New(executor.Options{
		Logger:       opts.Logger,
		Registry:     reg,
		Handler:      opts.Handler,
		ControlPlane: opts.ControlPlane,
		Observers:    opts.Observers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	logger.Info("engine initialized", mdwlog.Fields{
		"resource_types":  len(reg.Types()),
		"modify_enabled":  e.modify.Load(),
		"max_input_bytes": opts.MaxInputLength,
	})
	return e, nil
}

// Registry returns the resource schema registry
func (e *Engine) Registry() *registry.Registry { return e.registry }

// ControlPlane returns the loop commands execute on
func (e *Engine) ControlPlane() *executor.ControlPlane { return e.executor.ControlPlane() }

// SetModifyEnabled toggles whether mutating commands are accepted. It
// takes effect for the next validated command.
func (e *Engine) SetModifyEnabled(enabled bool) {
	if e.modify.Swap(enabled) != enabled {
		e.logger.Info("modification toggled", mdwlog.Fields{"enabled": enabled})
	}
}

// ModifyEnabled reports whether mutating commands are accepted
func (e *Engine) ModifyEnabled() bool { return e.modify.Load() }

// Parse turns a line into a validated command
func (e *Engine) Parse(line string) (*ast.Command, error) {
	cmd, err := e.parser.Parse(line)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// ParseTokens is Parse for a pre-tokenized line
func (e *Engine) ParseTokens(tokens []string) (*ast.Command, error) {
	cmd, err := e.parser.ParseTokens(tokens)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Submit parses, validates and enqueues line. Parse and validation
// failures come back as an already completed future.
func (e *Engine) Submit(source, line string) *Future {
	cmd, err := e.Parse(line)
	if err != nil {
		return executor.FailedFuture(line, err)
	}
	return e.executor.SubmitFrom(source, cmd)
}

// SubmitCommand validates a programmatically built command and enqueues
// it. A rejected command comes back as an already completed future.
func (e *Engine) SubmitCommand(source string, cmd *ast.Command) *Future {
	if err := e.validator.Validate(cmd); err != nil {
		return executor.FailedFuture(cmd.String(), err)
	}
	return e.executor.SubmitFrom(source, cmd)
}

// Execute runs line and waits for the result without a deadline
func (e *Engine) Execute(line string) (*CmdResult, error) {
	return e.Submit("", line).Wait()
}

// ExecuteContext runs line and waits until ctx is done. The command keeps
// running after ctx expires.
func (e *Engine) ExecuteContext(ctx context.Context, source, line string) (*CmdResult, error) {
	return e.Submit(source, line).WaitContext(ctx)
}

// Help returns the command language reference
func (e *Engine) Help() string { return e.registry.Help() }

// Close drains pending commands and stops the control plane if the engine
// owns it
func (e *Engine) Close() {
	e.executor.Close()
	e.logger.Debug("engine closed")
}

// IsUserError reports failures caused by the command text rather than the
// system
func IsUserError(err error) bool {
	return mdwerror.IsSyntax(err) && !mdwerror.HasCode(err, mdwerror.CodeRCLFSMInvariant) ||
		mdwerror.IsSemantic(err) ||
		mdwerror.HasCode(err, mdwerror.CodeRCLParamValidation)
}
