// File: parser.go
// Title: RCL State Machine Parser
// Description: Walks the token stream through the transition table in
//              fsm.go and assembles an ast.Command. Every rejection is a
//              syntax error except a walk that ends in a non-accept state
//              without a missing-token error, which is reported as a broken
//              table.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation
// - 2026-10-19 v0.1.1: Length bound on pre-split tokens

package parser

import (
	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
)

// DefaultMaxInputLength bounds a single command line
const DefaultMaxInputLength = 4096

// Parser converts command lines into commands
type Parser struct {
	logger  *mdwlog.Logger
	options Options
	machine *machine
}

// Options configures parser behavior
type Options struct {
	Logger         *mdwlog.Logger
	MaxInputLength int
}

// New creates a new parser with the given options
func New(opts Options) (*Parser, error) {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MaxInputLength <= 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}

	return &Parser{
		logger:  opts.Logger.WithField("component", "rcl-parser"),
		options: opts,
		machine: defaultMachine,
	}, nil
}

// Parse parses a raw command line
func (p *Parser) Parse(input string) (*ast.Command, error) {
	if len(input) > p.options.MaxInputLength {
		return nil, mdwerror.Syntax("input exceeds maximum length: %d > %d", len(input), p.options.MaxInputLength)
	}
	return p.run(TokenizeInput(input))
}

// ParseTokens parses an already split command line. The fields are bounded
// as if joined by single spaces.
func (p *Parser) ParseTokens(fields []string) (*ast.Command, error) {
	n := 0
	for i, f := range fields {
		if i > 0 {
			n++
		}
		n += len(f)
	}
	if n > p.options.MaxInputLength {
		return nil, mdwerror.Syntax("input exceeds maximum length: %d > %d", n, p.options.MaxInputLength)
	}
	return p.run(TokenizeFields(fields))
}

func (p *Parser) run(tokens []Token) (*ast.Command, error) {
	cmd, err := p.walk(tokens)
	if err != nil {
		fields := mdwlog.Fields{"tokens": len(tokens), "error": err.Error()}
		if mdwerror.HasCode(err, mdwerror.CodeRCLFSMInvariant) {
			fields["fsm_invariant"] = true
			p.logger.Error("parser state machine ended outside accept set", fields)
		} else {
			p.logger.Debug("command rejected by parser", fields)
		}
		return nil, err
	}

	p.logger.Debug("command parsed", mdwlog.Fields{"command": cmd.String()})
	return cmd, nil
}

// builder accumulates the command while the machine walks
type builder struct {
	cmd     *ast.Command
	tail    *ast.Resource // last node of the chain being extended
	pending ast.Param
}

func (p *Parser) walk(tokens []Token) (*ast.Command, error) {
	if len(tokens) == 0 {
		return nil, mdwerror.Syntax("empty command")
	}

	action, ok := ast.ResolveAction(tokens[0].Value)
	if !ok {
		return nil, mdwerror.Syntax("invalid action: %s", tokens[0].Value).
			WithDetail("position", tokens[0].Position)
	}

	b := &builder{cmd: &ast.Command{Action: action}}
	cur := stateAction

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		next, value, cat, ok := p.machine.step(cur, tok.Value)
		if !ok {
			if cat != 0 {
				return nil, mdwerror.Syntax("invalid %s: %s", cat, tok.Value).
					WithDetail("position", tok.Position)
			}
			return nil, mdwerror.Syntax("invalid syntax near %s %s", tokens[i-1].Value, tok.Value).
				WithDetail("position", tok.Position)
		}

		p.logger.Trace("transition", mdwlog.Fields{"from": int(cur), "to": int(next), "token": tok.Value})

		if err := b.enter(next, tok.Value, value); err != nil {
			return nil, err.WithDetail("position", tok.Position)
		}
		cur = next
	}

	last := tokens[len(tokens)-1]
	if p.machine.rules[cur].requiresNext {
		return nil, mdwerror.Syntax("unexpected end after %s", last.Value)
	}
	if !p.machine.accept[cur] {
		return nil, mdwerror.FSMInvariant("parser ended in non-accept state %d after %s", cur, last.Value).
			WithDetail("state", int(cur))
	}
	return b.cmd, nil
}

// enter applies the side effect of moving into state s with token tok
func (b *builder) enter(s state, tok string, value interface{}) *mdwerror.Error {
	switch s {
	case stateType:
		r := &ast.Resource{Type: value.(ast.ResourceType)}
		b.cmd.Resource = r
		b.tail = r
	case stateAlias, statePrepAlias, stateParentAlias, statePrepParentAlias:
		if containsSpace(tok) {
			return mdwerror.Syntax("invalid name: %q", tok)
		}
		b.tail.Alias = tok
	case statePrep:
		b.cmd.Preposition = value.(ast.Preposition)
	case statePrepType:
		r := &ast.Resource{Type: value.(ast.ResourceType)}
		b.cmd.PrepResource = r
		b.tail = r
	case stateParentType, statePrepParentType:
		r := &ast.Resource{Type: value.(ast.ResourceType)}
		b.tail.Parent = r
		b.tail = r
	case stateFlag:
		b.cmd.Flags.Add(value.(ast.Flag))
	case stateParamKey:
		key := value.(ast.Param)
		if b.cmd.Params.Has(key) {
			return mdwerror.Syntax("duplicate param: %s", key.Full())
		}
		b.pending = key
	case stateParamValue:
		if containsSpace(tok) {
			return mdwerror.Syntax("invalid value for %s: %q", b.pending.Full(), tok)
		}
		b.cmd.Params.Set(b.pending, tok)
	case stateIn, statePrepIn:
	}
	return nil
}
