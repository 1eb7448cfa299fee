package grpc

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/reportkeeper/internal/client/rpc"
	"github.com/dmitrijs2005/reportkeeper/internal/server/collector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// splitMethod turns "/svc/method" into its parts.
func splitMethod(full string) (service, method string, ok bool) {
	service, method, ok = strings.Cut(strings.TrimPrefix(full, "/"), "/")
	return service, method, ok && service != "" && method != ""
}

// dispatch reads one request list, routes it by method name and writes
// the response envelope.
func (s *GRPCServer) dispatch(_ any, stream grpc.ServerStream) error {
	full, _ := grpc.MethodFromServerStream(stream)
	service, method, ok := splitMethod(full)
	if !ok || service != rpc.ServiceName {
		return status.Errorf(codes.Unimplemented, "unknown method %s", full)
	}

	req := &structpb.ListValue{}
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	params := decodeParams(req)

	ctx := stream.Context()
	var reply collector.Reply
	switch method {
	case rpc.CmdPing:
		reply = s.collector.Ping(ctx)
	case rpc.CmdGetAccessToken:
		reply = s.collector.AccessToken(ctx, params)
	case rpc.CmdUploadBulletin:
		reply = s.collector.Upload(ctx, accountIDFromContext(ctx), params)
	default:
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}

	return stream.SendMsg(rpc.EncodeResponse(reply.Code, reply.Payload...))
}

// decodeParams flattens the request to strings. Nulls become "".
func decodeParams(l *structpb.ListValue) []string {
	values := l.GetValues()
	params := make([]string, 0, len(values))
	for _, v := range values {
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			params = append(params, k.StringValue)
		case *structpb.Value_NullValue, nil:
			params = append(params, "")
		default:
			params = append(params, fmt.Sprint(v.AsInterface()))
		}
	}
	return params
}
