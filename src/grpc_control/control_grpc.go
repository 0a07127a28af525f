package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Bindings for control.proto. Every message is a protobuf well-known type.

const (
	serviceName            = "dashboard.control.v1.DashboardControl"
	statsMethod            = "/" + serviceName + "/Stats"
	listSourcesMethod      = "/" + serviceName + "/ListSources"
	invalidateSymbolMethod = "/" + serviceName + "/InvalidateSymbol"
	refreshSymbolMethod    = "/" + serviceName + "/RefreshSymbol"
	archivedCandlesMethod  = "/" + serviceName + "/ArchivedCandles"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type DashboardControlServer interface {
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListSources(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	InvalidateSymbol(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	RefreshSymbol(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ArchivedCandles(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterDashboardControlServer(s grpc.ServiceRegistrar, srv DashboardControlServer) {
	s.RegisterService(&DashboardControl_ServiceDesc, srv)
}

var DashboardControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DashboardControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Stats", Handler: statsHandler},
		{MethodName: "ListSources", Handler: listSourcesHandler},
		{MethodName: "InvalidateSymbol", Handler: invalidateSymbolHandler},
		{MethodName: "RefreshSymbol", Handler: refreshSymbolHandler},
		{MethodName: "ArchivedCandles", Handler: archivedCandlesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "control.proto",
}

// -----------------------------------------------------------------------------

func statsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardControlServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DashboardControlServer).Stats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listSourcesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardControlServer).ListSources(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listSourcesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DashboardControlServer).ListSources(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func invalidateSymbolHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardControlServer).InvalidateSymbol(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: invalidateSymbolMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DashboardControlServer).InvalidateSymbol(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func refreshSymbolHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardControlServer).RefreshSymbol(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: refreshSymbolMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DashboardControlServer).RefreshSymbol(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func archivedCandlesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardControlServer).ArchivedCandles(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: archivedCandlesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DashboardControlServer).ArchivedCandles(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type DashboardControlClient struct {
	cc grpc.ClientConnInterface
}

func NewDashboardControlClient(cc grpc.ClientConnInterface) *DashboardControlClient {
	return &DashboardControlClient{cc: cc}
}

func (c *DashboardControlClient) Stats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DashboardControlClient) ListSources(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listSourcesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DashboardControlClient) InvalidateSymbol(ctx context.Context, symbol string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, invalidateSymbolMethod, wrapperspb.String(symbol), new(emptypb.Empty), opts...)
}

func (c *DashboardControlClient) RefreshSymbol(ctx context.Context, symbol string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, refreshSymbolMethod, wrapperspb.String(symbol), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DashboardControlClient) ArchivedCandles(ctx context.Context, symbol, period string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"symbol": symbol, "period": period})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, archivedCandlesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
