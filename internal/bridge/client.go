package bridge

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/container"
	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/models"
	"github.com/dmitrijs2005/kolp/internal/services"
)

// Client is a typed wrapper around a bridge connection.
type Client struct {
	conn        *grpc.ClientConn
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

// NewClient connects to target. Extra dial options (for example a custom
// dialer in tests) are appended.
func NewClient(target, accessToken string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{accessToken: accessToken}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.unaryInterceptor),
		grpc.WithStreamInterceptor(c.streamInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) unaryInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(withAccessToken(ctx, c.accessToken), method, req, reply, cc, opts...)
}

func (c *Client) streamInterceptor(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, c.accessToken), desc, cc, method, opts...)
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, fullMethod("Ping"), &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Encode(ctx context.Context, s *models.Snapshot) ([]byte, error) {
	in, err := snapshotToStruct(s)
	if err != nil {
		return nil, err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, fullMethod("Encode"), in, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) Decode(ctx context.Context, b []byte) (*container.Backup, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("Decode"), wrapperspb.Bytes(b), out); err != nil {
		return nil, err
	}
	m := out.AsMap()
	data, _ := m["data"].(map[string]any)
	snap, err := snapshotFromMap(data)
	if err != nil {
		return nil, err
	}
	version, _ := m["version"].(float64)
	checksum, _ := m["checksum"].(string)
	return &container.Backup{
		Version:   byte(version),
		Timestamp: parseInstant(m["timestamp"]),
		Checksum:  checksum,
		Data:      *snap,
	}, nil
}

func (c *Client) StartAuth(ctx context.Context, clientID, clientSecret string) (services.AuthResult, error) {
	in, err := structpb.NewStruct(map[string]any{"clientId": clientID, "clientSecret": clientSecret})
	if err != nil {
		return services.AuthResult{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("StartAuth"), in, out); err != nil {
		return services.AuthResult{}, err
	}
	m := out.AsMap()
	return services.AuthResult{
		Success: asBool(m["success"]),
		Email:   asString(m["email"]),
		Error:   asString(m["error"]),
	}, nil
}

func (c *Client) AuthStatus(ctx context.Context) (services.AuthStatus, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("AuthStatus"), &emptypb.Empty{}, out); err != nil {
		return services.AuthStatus{}, err
	}
	m := out.AsMap()
	return services.AuthStatus{
		Connected:  asBool(m["connected"]),
		Email:      asString(m["email"]),
		ExpiresAt:  parseInstant(m["expiresAt"]),
		LastSyncAt: parseInstant(m["lastSyncAt"]),
	}, nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.conn.Invoke(ctx, fullMethod("Disconnect"), &emptypb.Empty{}, new(emptypb.Empty))
}

func (c *Client) SyncUpload(ctx context.Context, s *models.Snapshot) (services.UploadResult, error) {
	in, err := snapshotToStruct(s)
	if err != nil {
		return services.UploadResult{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("SyncUpload"), in, out); err != nil {
		return services.UploadResult{}, err
	}
	m := out.AsMap()
	return services.UploadResult{
		Success: asBool(m["success"]),
		FileID:  asString(m["fileId"]),
		Name:    asString(m["name"]),
		Error:   asString(m["error"]),
	}, nil
}

func (c *Client) SyncDownload(ctx context.Context) (services.DownloadResult, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("SyncDownload"), &emptypb.Empty{}, out); err != nil {
		return services.DownloadResult{}, err
	}
	m := out.AsMap()
	res := services.DownloadResult{
		Success:   asBool(m["success"]),
		Error:     asString(m["error"]),
		Timestamp: parseInstant(m["timestamp"]),
	}
	if data, ok := m["snapshot"].(map[string]any); ok {
		snap, err := snapshotFromMap(data)
		if err != nil {
			return services.DownloadResult{}, err
		}
		res.Snapshot = snap
	}
	return res, nil
}

// Subscribe delivers events to fn until ctx ends or the stream breaks.
func (c *Client) Subscribe(ctx context.Context, fn func(events.Event)) error {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("Subscribe"))
	if err != nil {
		return err
	}
	// io.EOF here means the server already ended the stream; the status
	// comes from RecvMsg below.
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		fn(eventFromStruct(msg))
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
