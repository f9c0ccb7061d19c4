// File: registry.go
// Title: RCL Resource Schema Registry
// Description: Loads and serves the resource table. Rows are checked for
//              internal consistency on registration so a broken row fails
//              at startup rather than on the first command that hits it.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
)

// Options configures the registry
type Options struct {
	Logger *mdwlog.Logger
}

// Registry maps resource types to their schema rows
type Registry struct {
	schemas map[ast.ResourceType]*Schema
	logger  *mdwlog.Logger
	mutex   sync.RWMutex
}

// New creates a registry loaded with the built-in resource table
func New(opts Options) (*Registry, error) {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}

	r := &Registry{
		schemas: make(map[ast.ResourceType]*Schema),
		logger:  opts.Logger.WithField("component", "rcl-registry"),
	}
	for _, s := range builtinSchemas() {
		if err := r.Register(s); err != nil {
			return nil, mdwerror.Wrap(err, "failed to register builtin schema")
		}
	}

	r.logger.Debug("resource schema loaded", mdwlog.Fields{"types": len(r.schemas)})
	return r, nil
}

// Register adds or replaces a schema row after checking it
func (r *Registry) Register(s *Schema) error {
	if s == nil {
		return mdwerror.New("schema cannot be nil").WithCode(mdwerror.CodeInvalidInput)
	}
	if err := checkRow(s); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.schemas[s.Type] = s
	return nil
}

func checkRow(s *Schema) error {
	if !s.Type.Valid() {
		return mdwerror.Newf("unknown resource type %d", s.Type).WithCode(mdwerror.CodeInvalidInput)
	}
	fail := func(format string, args ...interface{}) error {
		return mdwerror.Newf("schema %s: "+format, append([]interface{}{s.Type.Full()}, args...)...).
			WithCode(mdwerror.CodeInvalidInput)
	}
	if s.Allows(ast.ActionAdd) && s.CheckCreate == nil {
		return fail("add allowed without create check")
	}
	if s.Allows(ast.ActionUpdate) && s.CheckUpdate == nil {
		return fail("update allowed without update check")
	}
	for _, a := range []ast.Action{ast.ActionList, ast.ActionListDetail} {
		if s.Allows(a) && s.View(a) == ViewNone {
			return fail("%s allowed without a view", a.Full())
		}
	}
	if !s.TopLevel && len(s.Containers) == 0 {
		return fail("neither top-level nor contained")
	}
	for c := range s.CheckAttach {
		if !s.AllowsContainer(c) {
			return fail("attach check for %s which is not a container", c.Full())
		}
	}
	return nil
}

// Lookup returns the schema row for t
func (r *Registry) Lookup(t ast.ResourceType) (*Schema, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	s, ok := r.schemas[t]
	return s, ok
}

// Types returns all registered types in declaration order
func (r *Registry) Types() []ast.ResourceType {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]ast.ResourceType, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Help renders the grammar and the resource table for interactive use
func (r *Registry) Help() string {
	var b strings.Builder
	b.WriteString("command := action resource [name] [in type name]... [to|from type name [in type name]...] [flag]... [param value]...\n\n")
	b.WriteString("actions:\n")
	for _, a := range ast.Actions() {
		fmt.Fprintf(&b, "  %-3s %s\n", a.Short(), a.Full())
	}
	b.WriteString("\nresources:\n")
	for _, t := range r.Types() {
		s, _ := r.Lookup(t)
		actions := make([]string, 0, len(s.Actions))
		for _, a := range s.Actions {
			actions = append(actions, a.Short())
		}
		where := make([]string, 0, len(s.Containers)+1)
		if s.TopLevel {
			where = append(where, "top-level")
		}
		for _, c := range s.Containers {
			where = append(where, c.Full())
		}
		fmt.Fprintf(&b, "  %-18s %-20s %-12s %s\n", t.Short(), t.Full(), strings.Join(actions, ","), strings.Join(where, ", "))
	}
	b.WriteString("\nflags:\n")
	for _, f := range ast.Flags() {
		fmt.Fprintf(&b, "  %-16s %s\n", f.Short(), f.Full())
	}
	b.WriteString("\nparams:\n")
	for _, p := range ast.AllParams() {
		fmt.Fprintf(&b, "  %-16s %s\n", p.Short(), p.Full())
	}
	return b.String()
}
