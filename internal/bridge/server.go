package bridge

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/services"
)

const eventBuffer = 64

type Server struct {
	address string
	auth    services.AuthService
	backup  services.BackupService
	bus     *events.Bus
	logger  logging.Logger
	secret  []byte
}

func NewServer(address string, auth services.AuthService, backup services.BackupService, bus *events.Bus, secret []byte, l logging.Logger) *Server {
	return &Server{
		address: address,
		auth:    auth,
		backup:  backup,
		bus:     bus,
		logger:  l.With("module", "bridge"),
		secret:  secret,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis and stops gracefully when ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	RegisterBridgeServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping bridge...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting bridge", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("pong"), nil
}

func (s *Server) Encode(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	snap, err := snapshotFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	b, err := s.backup.Encode(ctx, snap)
	if err != nil {
		return nil, status.Error(codes.Internal, services.Message(err))
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Decode(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	b, err := s.backup.Decode(ctx, in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, services.Message(err))
	}
	data, err := toMap(&b.Data)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return newStructOrInternal(map[string]any{
		"version":   int64(b.Version),
		"timestamp": instant(b.Timestamp),
		"checksum":  b.Checksum,
		"data":      data,
	})
}

func (s *Server) StartAuth(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res := s.auth.StartAuth(ctx, stringField(in, "clientId"), stringField(in, "clientSecret"))
	return newStructOrInternal(map[string]any{
		"success": res.Success,
		"email":   res.Email,
		"error":   res.Error,
	})
}

func (s *Server) AuthStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.auth.Status(ctx)
	return newStructOrInternal(map[string]any{
		"connected":  st.Connected,
		"email":      st.Email,
		"expiresAt":  instant(st.ExpiresAt),
		"lastSyncAt": instant(st.LastSyncAt),
	})
}

func (s *Server) Disconnect(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.auth.Disconnect(ctx); err != nil {
		return nil, status.Error(codes.Internal, services.Message(err))
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) SyncUpload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	snap, err := snapshotFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res := s.backup.SyncUpload(ctx, snap)
	return newStructOrInternal(map[string]any{
		"success": res.Success,
		"fileId":  res.FileID,
		"name":    res.Name,
		"error":   res.Error,
	})
}

func (s *Server) SyncDownload(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res := s.backup.SyncDownload(ctx)
	out := map[string]any{
		"success":   res.Success,
		"error":     res.Error,
		"timestamp": instant(res.Timestamp),
	}
	if res.Snapshot != nil {
		data, err := toMap(res.Snapshot)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		out["snapshot"] = data
	}
	return newStructOrInternal(out)
}

// Subscribe streams bus events until the client goes away.
func (s *Server) Subscribe(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ctx := stream.Context()
	ch, stop := s.bus.Channel(eventBuffer)
	defer stop()

	s.logger.Debug(ctx, "event subscriber attached")
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := eventToStruct(e)
			if err != nil {
				s.logger.Warn(ctx, "cannot encode event", "kind", string(e.Kind), "error", err)
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func newStructOrInternal(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}
