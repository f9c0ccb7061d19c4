// Package runner abstracts where command lines are executed: in process
// against a local engine or remotely over the control API.
package runner

import (
	"context"

	"github.com/msto63/netplane/foundation/rcl"
	"github.com/msto63/netplane/internal/server"
)

// Runner executes command lines
type Runner interface {
	// Run executes one line and waits for its result
	Run(ctx context.Context, line string) (*rcl.CmdResult, error)
	// Help returns the command language reference
	Help(ctx context.Context) (string, error)
	// Target describes where commands go, for prompts and banners
	Target() string
}

// Local runs commands on an in-process engine
type Local struct {
	engine *rcl.Engine
	source string
}

// NewLocal creates a runner labelling its commands with source
func NewLocal(engine *rcl.Engine, source string) *Local {
	return &Local{engine: engine, source: source}
}

// Run executes line on the engine
func (l *Local) Run(ctx context.Context, line string) (*rcl.CmdResult, error) {
	return l.engine.ExecuteContext(ctx, l.source, line)
}

// Help returns the engine's reference
func (l *Local) Help(context.Context) (string, error) { return l.engine.Help(), nil }

// Target returns "local"
func (l *Local) Target() string { return "local" }

// Remote runs commands through a control API client
type Remote struct {
	client *server.Client
	target string
}

// NewRemote wraps client connected to target
func NewRemote(client *server.Client, target string) *Remote {
	return &Remote{client: client, target: target}
}

// Run executes line remotely
func (r *Remote) Run(ctx context.Context, line string) (*rcl.CmdResult, error) {
	_, res, err := r.client.Execute(ctx, line)
	return res, err
}

// Help returns the remote reference
func (r *Remote) Help(ctx context.Context) (string, error) { return r.client.Help(ctx) }

// Target returns the remote address
func (r *Remote) Target() string { return r.target }
