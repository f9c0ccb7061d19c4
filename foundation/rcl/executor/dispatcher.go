// File: dispatcher.go
// Title: RCL Command Dispatcher
// Description: Maps a validated command onto a single handler call and
//              shapes the result by the list view of its schema row.
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

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

// Dispatcher turns a validated command into exactly one handler call
type Dispatcher struct {
	registry *registry.Registry
	handler  Handler
	logger   *mdwlog.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(reg *registry.Registry, handler Handler, logger *mdwlog.Logger) (*Dispatcher, error) {
	if reg == nil || handler == nil {
		return nil, mdwerror.New("registry and handler are required").WithCode(mdwerror.CodeInvalidInput)
	}
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &Dispatcher{registry: reg, handler: handler, logger: logger.WithField("component", "rcl-dispatcher")}, nil
}

// Dispatch must only be called for commands that passed validation
func (d *Dispatcher) Dispatch(ctx context.Context, cmd *ast.Command) (*CmdResult, error) {
	res := cmd.Resource
	schema, ok := d.registry.Lookup(res.Type)
	if !ok {
		return nil, mdwerror.Semantic("unknown resource type %s", res.Type)
	}
	parent := cmd.Target()
	op := cmd.Action.Full() + " " + res.Type.Full()

	switch cmd.Action {
	case ast.ActionList, ast.ActionListDetail:
		switch view := schema.View(cmd.Action); view {
		case registry.ViewNames:
			names, err := d.handler.ListNames(ctx, res.Type, parent)
			if err != nil {
				return nil, mdwerror.Handler(err, op)
			}
			return namesResult(names), nil
		case registry.ViewDetail:
			items, err := d.handler.ListDetail(ctx, res.Type, parent)
			if err != nil {
				return nil, mdwerror.Handler(err, op)
			}
			return detailResult(items), nil
		case registry.ViewCount:
			n, err := d.handler.Count(ctx, res.Type, parent)
			if err != nil {
				return nil, mdwerror.Handler(err, op)
			}
			return countResult(n), nil
		default:
			return nil, mdwerror.Semantic("%s has no %s view", res.Type.Full(), cmd.Action.Full())
		}

	case ast.ActionAdd:
		created, err := d.handler.Create(ctx, res.Type, res.Alias, parent, cmd.Params, cmd.Flags)
		if err != nil {
			return nil, mdwerror.Handler(err, op)
		}
		if created != "" {
			return scalarResult(created), nil
		}
		return emptyResult(), nil

	case ast.ActionRemove, ast.ActionForceRemove:
		graceful := cmd.Action == ast.ActionRemove
		if err := d.handler.Remove(ctx, res.Type, res.Alias, parent, cmd.Params, graceful); err != nil {
			return nil, mdwerror.Handler(err, op)
		}
		return emptyResult(), nil

	case ast.ActionUpdate:
		if err := d.handler.Update(ctx, res.Type, res.Alias, parent, cmd.Params, cmd.Flags); err != nil {
			return nil, mdwerror.Handler(err, op)
		}
		return emptyResult(), nil
	}

	return nil, mdwerror.Semantic("unknown action %d", cmd.Action)
}
