// File: validator.go
// Title: RCL Semantic Validator
// Description: Rejects every command that is well formed but illegal for
//              the resource schema, before anything touches the resource
//              tree. Checks run in a fixed order and stop at the first
//              failure.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation
// - 2026-10-19 v0.1.1: Parent chains on add and remove gated per type

// Package validator checks parsed commands against the resource schema.
package validator

import (
	"strings"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

// Options configures the validator
type Options struct {
	Logger   *mdwlog.Logger
	Registry *registry.Registry
	// ModifyEnabled is consulted for every mutating command; nil means
	// modification is always allowed
	ModifyEnabled func() bool
}

// Validator is stateless apart from its options and safe for concurrent use
type Validator struct {
	registry      *registry.Registry
	modifyEnabled func() bool
	logger        *mdwlog.Logger
}

// New creates a validator
func New(opts Options) (*Validator, error) {
	if opts.Registry == nil {
		return nil, mdwerror.New("registry is required").WithCode(mdwerror.CodeInvalidInput)
	}
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.ModifyEnabled == nil {
		opts.ModifyEnabled = func() bool { return true }
	}
	return &Validator{
		registry:      opts.Registry,
		modifyEnabled: opts.ModifyEnabled,
		logger:        opts.Logger.WithField("component", "rcl-validator"),
	}, nil
}

// Validate returns nil if cmd may be dispatched
func (v *Validator) Validate(cmd *ast.Command) error {
	err := v.validate(cmd)
	if err != nil {
		v.logger.Debug("command rejected by validator", mdwlog.Fields{
			"command": cmd.String(),
			"code":    mdwerror.GetCode(err).String(),
			"error":   err.Error(),
		})
	}
	return err
}

func (v *Validator) validate(cmd *ast.Command) error {
	if cmd == nil || cmd.Resource == nil {
		return mdwerror.Semantic("empty command")
	}
	res := cmd.Resource
	schema, ok := v.registry.Lookup(res.Type)
	if !ok {
		return mdwerror.Semantic("unknown resource type %s", res.Type)
	}

	if err := v.checkShape(cmd); err != nil {
		return err
	}
	if cmd.Action.IsMutating() && cmd.Action != ast.ActionUpdate && res.Parent != nil && !schema.ParentChain {
		return mdwerror.Semantic("cannot specify parent resource when %s %s, use '%s' instead",
			cmd.Action.Full(), res.Type.Full(), mutatingPrep(cmd.Action))
	}

	if !schema.Allows(cmd.Action) {
		return mdwerror.Semantic("cannot %s %s", cmd.Action.Full(), res.Type.Full())
	}

	target := cmd.Target()
	if err := v.checkPlacement(schema, target, cmd); err != nil {
		return err
	}
	if err := v.checkChain(target); err != nil {
		return err
	}

	return v.checkArguments(schema, target, cmd)
}

// checkShape covers the rules that depend only on the action
func (v *Validator) checkShape(cmd *ast.Command) error {
	res := cmd.Resource
	switch {
	case cmd.Action.IsList():
		if cmd.Preposition != ast.PrepNone {
			return mdwerror.Semantic("%s does not take a preposition", cmd.Action.Full())
		}
		if res.Alias != "" {
			return mdwerror.Semantic("%s does not take a name: %s", cmd.Action.Full(), res.Label())
		}
		return nil

	case cmd.Action.IsMutating():
		if !v.modifyEnabled() {
			return mdwerror.ConfigLocked()
		}
		if res.Alias == "" {
			return mdwerror.Semantic("%s %s requires a name", cmd.Action.Full(), res.Type.Full())
		}
		if cmd.Action == ast.ActionUpdate {
			if cmd.Preposition != ast.PrepNone {
				return mdwerror.Semantic("update does not take a preposition")
			}
			return nil
		}
		if cmd.Preposition != ast.PrepNone {
			if res.Parent != nil {
				return mdwerror.Semantic("%s cannot use both 'in' and '%s'", cmd.Action.Full(), cmd.Preposition)
			}
			if want := mutatingPrep(cmd.Action); cmd.Preposition != want {
				return mdwerror.Semantic("%s requires '%s', got '%s'", cmd.Action.Full(), want, cmd.Preposition)
			}
		}
		return nil
	}
	return mdwerror.Semantic("unknown action")
}

func mutatingPrep(a ast.Action) ast.Preposition {
	if a.IsRemove() {
		return ast.PrepFrom
	}
	return ast.PrepTo
}

func (v *Validator) checkPlacement(schema *registry.Schema, target *ast.Resource, cmd *ast.Command) error {
	t := cmd.Resource.Type
	if target == nil {
		if !schema.TopLevel {
			return mdwerror.Semantic("%s requires a container: one of %s", t.Full(), typeList(schema.Containers))
		}
		return nil
	}
	if !schema.AllowsContainer(target.Type) {
		if len(schema.Containers) == 0 {
			return mdwerror.Semantic("%s is top-level and cannot be placed in %s", t.Full(), target.Type.Full())
		}
		return mdwerror.Semantic("%s cannot be placed in %s, expecting one of %s", t.Full(), target.Type.Full(), typeList(schema.Containers))
	}
	return nil
}

// checkChain verifies that every ancestor sits where its own row allows
func (v *Validator) checkChain(target *ast.Resource) error {
	for node := target; node != nil; node = node.Parent {
		s, ok := v.registry.Lookup(node.Type)
		if !ok {
			return mdwerror.Semantic("unknown resource type %s", node.Type)
		}
		if node.Parent == nil {
			if !s.TopLevel {
				return mdwerror.Semantic("%s requires a container: one of %s", node.Label(), typeList(s.Containers))
			}
			continue
		}
		if !s.AllowsContainer(node.Parent.Type) {
			return mdwerror.Semantic("%s cannot be placed in %s", node.Label(), node.Parent.Label())
		}
	}
	return nil
}

func (v *Validator) checkArguments(schema *registry.Schema, target *ast.Resource, cmd *ast.Command) error {
	switch cmd.Action {
	case ast.ActionAdd, ast.ActionUpdate:
		for _, f := range cmd.Flags.Sorted() {
			if !schema.AllowsFlag(f) {
				return mdwerror.ParamValidation("flag %s is not supported for %s", f.Full(), schema.Type.Full())
			}
		}
	default:
		if cmd.Flags.Len() > 0 {
			return mdwerror.ParamValidation("%s does not take flags", cmd.Action.Full())
		}
	}

	switch cmd.Action {
	case ast.ActionAdd:
		if target != nil {
			if attach, ok := schema.CheckAttach[target.Type]; ok {
				return attach(cmd)
			}
		}
		return schema.CheckCreate(cmd)
	case ast.ActionUpdate:
		return schema.CheckUpdate(cmd)
	case ast.ActionRemove, ast.ActionForceRemove:
		if schema.CheckRemove != nil {
			return schema.CheckRemove(cmd)
		}
	}
	if cmd.Params.Len() > 0 {
		return mdwerror.ParamValidation("%s %s does not take params", cmd.Action.Full(), schema.Type.Full())
	}
	return nil
}

func typeList(ts []ast.ResourceType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Full()
	}
	return strings.Join(names, ", ")
}
