package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/executor"
	grpcx "github.com/msto63/netplane/pkg/core/grpc"
)

// Client calls a remote control service
type Client struct {
	conn   *grpc.ClientConn
	source string
}

// Dial connects to target; source labels the commands this client sends
func Dial(target, source string, logger *mdwlog.Logger) (*Client, error) {
	conn, err := grpcx.Dial(grpcx.DefaultClientConfig(target), logger)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, source), nil
}

// NewClient wraps an existing connection
func NewClient(conn *grpc.ClientConn, source string) *Client {
	return &Client{conn: conn, source: source}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.source == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, grpcx.SourceHeader, c.source)
}

// Execute runs line remotely and returns the command id and result.
// Failures carry the same error codes as local execution.
func (c *Client) Execute(ctx context.Context, line string) (string, *executor.CmdResult, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), ExecuteMethod, wrapperspb.String(line), out); err != nil {
		return "", nil, fromStatus(err)
	}
	return decodeResult(out)
}

// Help returns the remote command language reference
func (c *Client) Help(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, HelpMethod, &emptypb.Empty{}, out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

// Version returns the remote version fields
func (c *Client) Version(ctx context.Context) (map[string]interface{}, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, VersionMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	return out.AsMap(), nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
