package mmuservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gojovmm.MMU"

const (
	translateMethod = "/" + ServiceName + "/Translate"
	statsMethod     = "/" + ServiceName + "/Stats"
	tablesMethod    = "/" + ServiceName + "/Tables"
)

// MMUServer is the server API of the MMU service. Messages are protobuf
// well-known types, so no generated code is needed on either side.
type MMUServer interface {
	// Translate takes a virtual address and returns the physical address.
	Translate(context.Context, *wrapperspb.UInt64Value) (*wrapperspb.UInt64Value, error)
	// Stats returns the translation counters.
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Tables returns a dump of the page table and the frame table.
	Tables(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the MMU service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MMUServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Translate", Handler: translateHandler},
		{MethodName: "Stats", Handler: statsHandler},
		{MethodName: "Tables", Handler: tablesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gojovmm/mmu.proto",
}

func translateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MMUServer).Translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: translateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MMUServer).Translate(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MMUServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MMUServer).Stats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func tablesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MMUServer).Tables(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: tablesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MMUServer).Tables(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
