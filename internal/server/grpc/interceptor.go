package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/client/rpc"
	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

func accountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// accountStream swaps in a context that carries the caller's account id.
type accountStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *accountStream) Context() context.Context { return s.ctx }

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// accountInterceptor lifts the account id header into the context, rejects
// uploads that come without one and logs every call. An upload that also
// carries an access token must present a valid one issued to that account.
func (s *GRPCServer) accountInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := ss.Context()

	md, _ := metadata.FromIncomingContext(ctx)
	accountID := firstValue(md, common.AccountIDHeaderName)

	if info.FullMethod == rpc.FullMethod(rpc.CmdUploadBulletin) {
		if accountID == "" {
			s.logger.Warn(ctx, "upload without account id")
			return status.Error(codes.Unauthenticated, "missing account id")
		}
		if token := firstValue(md, common.AccessTokenHeaderName); token != "" {
			tokenAccount, err := auth.GetAccountIDFromToken(token, s.jwtSecret)
			if err != nil || tokenAccount != accountID {
				s.logger.Warn(ctx, "upload with invalid access token")
				return status.Error(codes.Unauthenticated, "invalid access token")
			}
		}
	}

	ctx = context.WithValue(ctx, accountIDKey, accountID)

	start := time.Now()
	err := handler(srv, &accountStream{ServerStream: ss, ctx: ctx})
	s.logger.Info(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "elapsed", time.Since(start))
	return err
}
