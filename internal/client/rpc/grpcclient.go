package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type invokeFunc func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	invoke      invokeFunc

	mu          sync.RWMutex
	accountID   string
	accessToken string
}

// Credentials identify the caller on every request. Empty fields are not sent.
type Credentials struct {
	AccountID   string
	AccessToken string
}

func withHeader(ctx context.Context, key, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(key)
	md.Set(key, value)

	return metadata.NewOutgoingContext(ctx, md)
}

func withAccountID(ctx context.Context, accountID string) context.Context {
	return withHeader(ctx, common.AccountIDHeaderName, accountID)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	return withHeader(ctx, common.AccessTokenHeaderName, token)
}

func (s *GRPCClient) authInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if id := s.AccountID(); id != "" {
		ctx = withAccountID(ctx, id)
	}
	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient creates a client for endpointURL. The connection is lazy;
// nothing is dialed until the first call. A positive timeout bounds every
// call.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.authInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.invoke = conn.Invoke
	return c, nil
}

// NewDialer returns a Dialer producing GRPCClients that send creds.
func NewDialer(creds Credentials, timeout time.Duration, opts ...grpc.DialOption) Dialer {
	return func(endpoint string) (Client, error) {
		c, err := NewGRPCClient(endpoint, timeout, opts...)
		if err != nil {
			return nil, err
		}
		c.SetAccountID(creds.AccountID)
		c.SetAccessToken(creds.AccessToken)
		return c, nil
	}
}

// SetAccountID sets the value sent in the account id header.
func (s *GRPCClient) SetAccountID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = id
}

func (s *GRPCClient) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// SetAccessToken sets the value sent in the access token header.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Execute(ctx context.Context, method string, params []any) (*outcome.Response, error) {
	req, err := structpb.NewList(params)
	if err != nil {
		return nil, &TransportError{Method: method, Err: fmt.Errorf("encode params: %w", err)}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply := &structpb.ListValue{}
	if err := s.invoke(ctx, FullMethod(method), req, reply); err != nil {
		return nil, s.mapError(method, err)
	}

	return decodeResponse(reply), nil
}

// FullMethod returns the gRPC path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func (s *GRPCClient) mapError(method string, err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return &TransportError{Method: method, Err: fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return &TransportError{Method: method, Err: fmt.Errorf("%w: %s", ErrUnavailable, st.Message())}
	default:
		return &TransportError{Method: method, Err: fmt.Errorf("rpc error: %w", err)}
	}
}

// decodeResponse reads [resultCode, [payload...]]. A list whose first
// element is not a string is not an envelope and decodes to nil.
func decodeResponse(l *structpb.ListValue) *outcome.Response {
	values := l.GetValues()
	if len(values) == 0 {
		return nil
	}
	code, ok := values[0].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}

	resp := &outcome.Response{ResultCode: code.StringValue}
	if len(values) < 2 {
		return resp
	}
	for _, v := range values[1].GetListValue().GetValues() {
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			resp.ResultPayload = append(resp.ResultPayload, k.StringValue)
		case *structpb.Value_NullValue:
		default:
			resp.ResultPayload = append(resp.ResultPayload, fmt.Sprint(v.AsInterface()))
		}
	}
	return resp
}

// EncodeResponse builds the wire form of a response. It is the inverse of
// the decoding done by Execute and is used by servers and tests.
func EncodeResponse(resultCode string, payload ...string) *structpb.ListValue {
	items := make([]*structpb.Value, 0, len(payload))
	for _, p := range payload {
		items = append(items, structpb.NewStringValue(p))
	}
	return &structpb.ListValue{Values: []*structpb.Value{
		structpb.NewStringValue(resultCode),
		structpb.NewListValue(&structpb.ListValue{Values: items}),
	}}
}
