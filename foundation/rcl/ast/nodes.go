// File: nodes.go
// Title: RCL Command Values
// Description: Resource chains, flag sets, ordered params and the Command
//              value with its canonical rendering.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package ast

import "strings"

// InKeyword introduces a parent resource in a resource chain
const InKeyword = "in"

// Resource is one node of a containment chain. Parent points to the
// resource this one lives in, or is nil for a top-level reference.
type Resource struct {
	Type   ResourceType
	Alias  string
	Parent *Resource
}

// String renders "type alias in type alias ..." with full names
func (r *Resource) String() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	r.render(&b)
	return b.String()
}

func (r *Resource) render(b *strings.Builder) {
	b.WriteString(r.Type.Full())
	if r.Alias != "" {
		b.WriteByte(' ')
		b.WriteString(r.Alias)
	}
	if r.Parent != nil {
		b.WriteString(" " + InKeyword + " ")
		r.Parent.render(b)
	}
}

// Depth returns the number of nodes in the chain starting at r
func (r *Resource) Depth() int {
	n := 0
	for cur := r; cur != nil; cur = cur.Parent {
		n++
	}
	return n
}

// Label renders "type alias" without the parent chain
func (r *Resource) Label() string {
	if r == nil {
		return ""
	}
	if r.Alias == "" {
		return r.Type.Full()
	}
	return r.Type.Full() + " " + r.Alias
}

// FlagSet is an unordered set of flags
type FlagSet map[Flag]struct{}

// Add inserts f
func (s *FlagSet) Add(f Flag) {
	if *s == nil {
		*s = make(FlagSet)
	}
	(*s)[f] = struct{}{}
}

// Has reports whether f is set
func (s FlagSet) Has(f Flag) bool {
	_, ok := s[f]
	return ok
}

// Len returns the number of flags
func (s FlagSet) Len() int { return len(s) }

// Sorted returns the flags in declaration order
func (s FlagSet) Sorted() []Flag {
	out := make([]Flag, 0, len(s))
	for _, f := range Flags() {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Equal compares as sets; nil and empty are equal
func (s FlagSet) Equal(o FlagSet) bool {
	if len(s) != len(o) {
		return false
	}
	for f := range s {
		if !o.Has(f) {
			return false
		}
	}
	return true
}

// Params maps param keys to values, remembering insertion order for
// rendering. The zero value is ready to use.
type Params struct {
	order  []Param
	values map[Param]string
}

// NewParams builds Params from alternating key/value pairs
func NewParams(kv ...interface{}) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i].(Param), kv[i+1].(string))
	}
	return p
}

// Set stores a value; it returns false when the key was already present
func (p *Params) Set(key Param, value string) bool {
	if p.values == nil {
		p.values = make(map[Param]string)
	}
	if _, dup := p.values[key]; dup {
		return false
	}
	p.values[key] = value
	p.order = append(p.order, key)
	return true
}

// Get returns the value for key
func (p Params) Get(key Param) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present
func (p Params) Has(key Param) bool {
	_, ok := p.values[key]
	return ok
}

// Len returns the number of params
func (p Params) Len() int { return len(p.order) }

// Keys returns the keys in insertion order
func (p Params) Keys() []Param {
	out := make([]Param, len(p.order))
	copy(out, p.order)
	return out
}

// Equal compares keys and values, ignoring insertion order
func (p Params) Equal(o Params) bool {
	if len(p.values) != len(o.values) {
		return false
	}
	for k, v := range p.values {
		if ov, ok := o.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Command is one parsed line
type Command struct {
	Action       Action
	Resource     *Resource
	Preposition  Preposition
	PrepResource *Resource
	Flags        FlagSet
	Params       Params
}

// Target returns the resource the primary resource is placed in: its own
// parent chain if present, otherwise the preposition resource.
func (c *Command) Target() *Resource {
	if c.Resource != nil && c.Resource.Parent != nil {
		return c.Resource.Parent
	}
	return c.PrepResource
}

// String renders the canonical form: full names for every keyword, flags
// in declaration order and params in insertion order.
func (c *Command) String() string {
	var b strings.Builder
	b.WriteString(c.Action.Full())
	b.WriteByte(' ')
	c.Resource.render(&b)
	if c.Preposition != PrepNone && c.PrepResource != nil {
		b.WriteByte(' ')
		b.WriteString(c.Preposition.String())
		b.WriteByte(' ')
		c.PrepResource.render(&b)
	}
	for _, f := range c.Flags.Sorted() {
		b.WriteByte(' ')
		b.WriteString(f.Full())
	}
	for _, k := range c.Params.order {
		b.WriteByte(' ')
		b.WriteString(k.Full())
		b.WriteByte(' ')
		b.WriteString(c.Params.values[k])
	}
	return b.String()
}
