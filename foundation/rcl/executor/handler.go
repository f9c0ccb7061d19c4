// File: handler.go
// Title: Resource Tree Handler Interface
// Description: Contract between the dispatcher and the owner of the
//              resource tree. Calls arrive on the control-plane goroutine.
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
	"fmt"

	"github.com/msto63/netplane/foundation/rcl/ast"
)

// Handler owns the resource tree. Every method is called on the
// control-plane goroutine and must not block; slow work is started
// elsewhere and its result posted back with ControlPlane.Post.
//
// parent is the container the command addresses: the primary resource's
// parent chain, or the resource after the preposition. It is nil for
// top-level resources.
type Handler interface {
	ListNames(ctx context.Context, t ast.ResourceType, parent *ast.Resource) ([]string, error)
	ListDetail(ctx context.Context, t ast.ResourceType, parent *ast.Resource) ([]fmt.Stringer, error)
	Count(ctx context.Context, t ast.ResourceType, parent *ast.Resource) (int64, error)

	// Create returns a non-empty string when the new resource has a
	// generated name, e.g. a tap device
	Create(ctx context.Context, t ast.ResourceType, name string, parent *ast.Resource, params ast.Params, flags ast.FlagSet) (string, error)
	Remove(ctx context.Context, t ast.ResourceType, name string, parent *ast.Resource, params ast.Params, graceful bool) error
	Update(ctx context.Context, t ast.ResourceType, name string, parent *ast.Resource, params ast.Params, flags ast.FlagSet) error
}
