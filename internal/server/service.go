// Package server exposes the command engine over gRPC. Messages are
// protobuf well-known types so no generated code is needed.
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "netplane.v1.Control"

// Full method names
const (
	ExecuteMethod = "/" + ServiceName + "/Execute"
	HelpMethod    = "/" + ServiceName + "/Help"
	VersionMethod = "/" + ServiceName + "/Version"
)

// ControlServer is the server API for the control service
type ControlServer interface {
	// Execute runs one command line and returns its result
	Execute(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Help returns the command language reference
	Help(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	// Version reports build and grammar versions
	Version(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterControlServer registers srv on s
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ControlServiceDesc, srv)
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Execute(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func helpHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Help(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HelpMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Help(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func versionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Version(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VersionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Version(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlServiceDesc describes the control service for grpc.Server
var ControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "Help", Handler: helpHandler},
		{MethodName: "Version", Handler: versionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "netplane/v1/control.proto",
}
