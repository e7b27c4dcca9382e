package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "gridsync.catalogue.v1.CatalogueService"

	// MaxIdentifiersPerCall is the server-imposed limit on identifiers per FetchByIds call.
	MaxIdentifiersPerCall = 1000

	// MaxMessageSize is the maximum size of a single message in either direction.
	MaxMessageSize = 20 * 1024 * 1024
)

const (
	FetchByIdsMethod                 = "/" + ServiceName + "/FetchByIds"
	FetchEquipmentForContainerMethod = "/" + ServiceName + "/FetchEquipmentForContainer"
	FetchHierarchyMethod             = "/" + ServiceName + "/FetchHierarchy"
	FetchMetadataMethod              = "/" + ServiceName + "/FetchMetadata"
)

// CatalogueServiceClient is the client API for the catalogue service.
type CatalogueServiceClient interface {
	FetchByIds(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
	FetchEquipmentForContainer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error)
	FetchHierarchy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FetchMetadata(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type catalogueServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCatalogueServiceClient creates a client stub over cc.
func NewCatalogueServiceClient(cc grpc.ClientConnInterface) CatalogueServiceClient {
	return &catalogueServiceClient{cc: cc}
}

func (c *catalogueServiceClient) FetchByIds(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &CatalogueService_ServiceDesc.Streams[0], FetchByIdsMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.ListValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *catalogueServiceClient) FetchEquipmentForContainer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	stream, err := c.cc.NewStream(ctx, &CatalogueService_ServiceDesc.Streams[1], FetchEquipmentForContainerMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, wrapperspb.StringValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *catalogueServiceClient) FetchHierarchy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FetchHierarchyMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogueServiceClient) FetchMetadata(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FetchMetadataMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogueServiceServer is the server API for the catalogue service.
type CatalogueServiceServer interface {
	FetchByIds(*structpb.ListValue, grpc.ServerStreamingServer[structpb.Struct]) error
	FetchEquipmentForContainer(*structpb.Struct, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
	FetchHierarchy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FetchMetadata(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCatalogueServiceServer registers srv with s.
func RegisterCatalogueServiceServer(s grpc.ServiceRegistrar, srv CatalogueServiceServer) {
	s.RegisterService(&CatalogueService_ServiceDesc, srv)
}

func fetchByIdsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.ListValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CatalogueServiceServer).FetchByIds(in, &grpc.GenericServerStream[structpb.ListValue, structpb.Struct]{ServerStream: stream})
}

func fetchEquipmentForContainerHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CatalogueServiceServer).FetchEquipmentForContainer(in, &grpc.GenericServerStream[structpb.Struct, wrapperspb.StringValue]{ServerStream: stream})
}

func fetchHierarchyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogueServiceServer).FetchHierarchy(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FetchHierarchyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogueServiceServer).FetchHierarchy(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func fetchMetadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogueServiceServer).FetchMetadata(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FetchMetadataMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogueServiceServer).FetchMetadata(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// CatalogueService_ServiceDesc is the grpc.ServiceDesc for the catalogue service.
var CatalogueService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogueServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchHierarchy", Handler: fetchHierarchyHandler},
		{MethodName: "FetchMetadata", Handler: fetchMetadataHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "FetchByIds", Handler: fetchByIdsHandler, ServerStreams: true},
		{StreamName: "FetchEquipmentForContainer", Handler: fetchEquipmentForContainerHandler, ServerStreams: true},
	},
	Metadata: "gridsync/catalogue/v1/catalogue.proto",
}
