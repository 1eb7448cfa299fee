package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * authInterceptor tests
 *************/

func TestInterceptor_AttachesAccountID(t *testing.T) {
	c := &GRPCClient{}
	c.SetAccountID("acc-1")

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccountIDHeaderName, "stale")
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		ids := md.Get(common.AccountIDHeaderName)
		require.Len(t, ids, 1)
		require.Equal(t, "acc-1", ids[0])
		return nil
	}

	require.NoError(t, c.authInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_NoAccountID_NoHeader(t *testing.T) {
	c := &GRPCClient{}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccountIDHeaderName))
		return status.Error(codes.Internal, "boom")
	}
	require.Error(t, c.authInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_AttachesAccessToken(t *testing.T) {
	c := &GRPCClient{}
	c.SetAccountID("acc-1")
	c.SetAccessToken("tok-1")

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "old")
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		assert.Equal(t, []string{"tok-1"}, md.Get(common.AccessTokenHeaderName))
		assert.Equal(t, []string{"acc-1"}, md.Get(common.AccountIDHeaderName))
		return nil
	}

	require.NoError(t, c.authInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_NoAccessToken_NoHeader(t *testing.T) {
	c := &GRPCClient{}
	c.SetAccountID("acc-1")
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		assert.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.authInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	var te *TransportError
	err := c.mapError(CmdPing, status.Error(codes.Unauthenticated, "x"))
	require.ErrorAs(t, err, &te)
	require.Equal(t, CmdPing, te.Method)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, c.mapError(CmdPing, status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(CmdPing, status.Error(codes.Unavailable, "x")), ErrUnavailable)
	require.ErrorIs(t, c.mapError(CmdPing, status.Error(codes.DeadlineExceeded, "x")), ErrUnavailable)

	e := errors.New("plain")
	err = c.mapError(CmdPing, e)
	require.ErrorContains(t, err, "rpc error:")
	require.ErrorIs(t, err, e)
	require.NoError(t, c.mapError(CmdPing, nil))
}

/*************
 * Execute tests
 *************/

func fakeInvoke(t *testing.T, wantMethod string, reply *structpb.ListValue, err error) invokeFunc {
	return func(ctx context.Context, method string, args, out any, opts ...grpc.CallOption) error {
		require.Equal(t, wantMethod, method)
		if err != nil {
			return err
		}
		dst := out.(*structpb.ListValue)
		dst.Values = reply.Values
		return nil
	}
}

func TestExecute_DecodesEnvelope(t *testing.T) {
	c := &GRPCClient{invoke: fakeInvoke(t, FullMethod(CmdGetAccessToken), EncodeResponse(outcome.CodeOK, "tok"), nil)}

	resp, err := c.Execute(context.Background(), CmdGetAccessToken, []any{"pub", []byte{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, &outcome.Response{ResultCode: outcome.CodeOK, ResultPayload: []string{"tok"}}, resp)
}

func TestExecute_MapsTransportError(t *testing.T) {
	c := &GRPCClient{invoke: fakeInvoke(t, FullMethod(CmdPing), nil, status.Error(codes.Unavailable, "down"))}

	resp, err := c.Execute(context.Background(), CmdPing, nil)
	require.Nil(t, resp)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestExecute_UnencodableParams(t *testing.T) {
	c := &GRPCClient{invoke: func(context.Context, string, any, any, ...grpc.CallOption) error {
		t.Fatal("must not be called")
		return nil
	}}

	_, err := c.Execute(context.Background(), CmdPing, []any{struct{}{}})
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestExecute_AppliesTimeout(t *testing.T) {
	c := &GRPCClient{timeout: time.Minute, invoke: func(ctx context.Context, _ string, _, _ any, _ ...grpc.CallOption) error {
		_, ok := ctx.Deadline()
		require.True(t, ok)
		return nil
	}}

	resp, err := c.Execute(context.Background(), CmdPing, nil)
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name string
		in   *structpb.ListValue
		want *outcome.Response
	}{
		{"nil", nil, nil},
		{"empty list", &structpb.ListValue{}, nil},
		{"code not a string", &structpb.ListValue{Values: []*structpb.Value{structpb.NewNumberValue(1)}}, nil},
		{"code only", &structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("ok")}}, &outcome.Response{ResultCode: "ok"}},
		{"ok with payload", EncodeResponse("ok", "a", "b"), &outcome.Response{ResultCode: "ok", ResultPayload: []string{"a", "b"}}},
		{"ok with empty payload", EncodeResponse("ok"), &outcome.Response{ResultCode: "ok"}},
		{"mixed payload", &structpb.ListValue{Values: []*structpb.Value{
			structpb.NewStringValue("ok"),
			structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
				structpb.NewNumberValue(3), structpb.NewNullValue(), structpb.NewBoolValue(true),
			}}),
		}}, &outcome.Response{ResultCode: "ok", ResultPayload: []string{"3", "true"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeResponse(tt.in))
		})
	}
}

/*************
 * end to end over an in-memory listener
 *************/

func startServer(t *testing.T, handler func(method string, md metadata.MD, req *structpb.ListValue) (*structpb.ListValue, error)) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		md, _ := metadata.FromIncomingContext(stream.Context())

		req := &structpb.ListValue{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		resp, err := handler(method, md, req)
		if err != nil {
			return err
		}
		return stream.SendMsg(resp)
	}))

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis
}

func TestDialer_EndToEnd(t *testing.T) {
	lis := startServer(t, func(method string, md metadata.MD, req *structpb.ListValue) (*structpb.ListValue, error) {
		if method != FullMethod(CmdGetAccessToken) {
			return nil, status.Error(codes.Unimplemented, method)
		}
		ids := md.Get(common.AccountIDHeaderName)
		if len(ids) != 1 || ids[0] != "acc-7" {
			return nil, status.Error(codes.Unauthenticated, "no account")
		}
		if toks := md.Get(common.AccessTokenHeaderName); len(toks) != 1 || toks[0] != "tok-7" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}
		return EncodeResponse(outcome.CodeOK, req.GetValues()[0].GetStringValue()+"-token"), nil
	})

	dial := NewDialer(Credentials{AccountID: "acc-7", AccessToken: "tok-7"}, 5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))

	c, err := dial("passthrough:///bufnet")
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Execute(context.Background(), CmdGetAccessToken, []any{"pub"})
	require.NoError(t, err)
	require.Equal(t, &outcome.Response{ResultCode: outcome.CodeOK, ResultPayload: []string{"pub-token"}}, resp)

	_, err = c.Execute(context.Background(), CmdPing, nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, CmdPing, te.Method)
}

func TestNewGRPCClient_LazyConnect(t *testing.T) {
	c, err := NewGRPCClient("localhost:1", time.Second)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
