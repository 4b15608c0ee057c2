package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service speaks only well-known protobuf types, so the descriptor is
// declared here instead of generated from a .proto file.

const (
	ServiceName             = "zonecount.ZoneCountService"
	ZoneCountCountsMethod   = "/zonecount.ZoneCountService/Counts"
	ZoneCountZonesMethod    = "/zonecount.ZoneCountService/Zones"
	ZoneCountCountForMethod = "/zonecount.ZoneCountService/CountFor"
)

type ZoneCountServiceServer interface {
	// Counts returns {"frames": N, "counts": [c0, c1, ...]}.
	Counts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Zones returns [[[x,y],...],...], the same shape as the zones file.
	Zones(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	CountFor(context.Context, *wrapperspb.Int32Value) (*wrapperspb.Int64Value, error)
}

func RegisterZoneCountServiceServer(s grpc.ServiceRegistrar, srv ZoneCountServiceServer) {
	s.RegisterService(&ZoneCountService_ServiceDesc, srv)
}

func _ZoneCountService_Counts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ZoneCountServiceServer).Counts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ZoneCountCountsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ZoneCountServiceServer).Counts(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ZoneCountService_Zones_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ZoneCountServiceServer).Zones(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ZoneCountZonesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ZoneCountServiceServer).Zones(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ZoneCountService_CountFor_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ZoneCountServiceServer).CountFor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ZoneCountCountForMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ZoneCountServiceServer).CountFor(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

var ZoneCountService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ZoneCountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Counts", Handler: _ZoneCountService_Counts_Handler},
		{MethodName: "Zones", Handler: _ZoneCountService_Zones_Handler},
		{MethodName: "CountFor", Handler: _ZoneCountService_CountFor_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zonecount.proto",
}

type ZoneCountServiceClient interface {
	Counts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Zones(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	CountFor(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
}

type zoneCountServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewZoneCountServiceClient(cc grpc.ClientConnInterface) ZoneCountServiceClient {
	return &zoneCountServiceClient{cc}
}

func (c *zoneCountServiceClient) Counts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ZoneCountCountsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *zoneCountServiceClient) Zones(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ZoneCountZonesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *zoneCountServiceClient) CountFor(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, ZoneCountCountForMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
