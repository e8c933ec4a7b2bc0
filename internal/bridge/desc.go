// Package bridge exposes the backup core to a local UI process over gRPC.
// Messages are protobuf well-known types, so no generated code is needed:
// structured payloads travel as google.protobuf.Struct.
package bridge

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "kolp.bridge.v1.Bridge"

// BridgeServer is the server side of the bridge service.
type BridgeServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Encode(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	Decode(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	StartAuth(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AuthStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Disconnect(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	SyncUpload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncDownload(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Subscribe(*emptypb.Empty, grpc.ServerStream) error
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[T proto.Message](name string, newReq func() T, call func(BridgeServer, context.Context, T) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BridgeServer), ctx, req.(T))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty         { return &emptypb.Empty{} }
func newStruct() *structpb.Struct      { return &structpb.Struct{} }
func newBytes() *wrapperspb.BytesValue { return &wrapperspb.BytesValue{} }

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", newEmpty, func(s BridgeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Ping(ctx, in)
		}),
		unary("Encode", newStruct, func(s BridgeServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Encode(ctx, in)
		}),
		unary("Decode", newBytes, func(s BridgeServer, ctx context.Context, in *wrapperspb.BytesValue) (any, error) {
			return s.Decode(ctx, in)
		}),
		unary("StartAuth", newStruct, func(s BridgeServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.StartAuth(ctx, in)
		}),
		unary("AuthStatus", newEmpty, func(s BridgeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.AuthStatus(ctx, in)
		}),
		unary("Disconnect", newEmpty, func(s BridgeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Disconnect(ctx, in)
		}),
		unary("SyncUpload", newStruct, func(s BridgeServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.SyncUpload(ctx, in)
		}),
		unary("SyncDownload", newEmpty, func(s BridgeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.SyncDownload(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(emptypb.Empty)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(BridgeServer).Subscribe(in, stream)
			},
		},
	},
	Metadata: "kolp/bridge.proto",
}

// RegisterBridgeServer registers srv on s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&serviceDesc, srv)
}
