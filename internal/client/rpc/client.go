package rpc

import (
	"context"

	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
)

// Method names understood by the server.
const (
	CmdPing           = "ping"
	CmdGetAccessToken = "getAccountAccessToken"
	CmdUploadBulletin = "uploadBulletin"
)

// ServiceName is the gRPC service the methods are routed to.
const ServiceName = "reportkeeper.v1.ClientService"

type Client interface {
	// Execute performs one round trip. A nil response with a nil error means
	// the server answered with something that is not an envelope.
	Execute(ctx context.Context, method string, params []any) (*outcome.Response, error)
	Close() error
}

// Dialer opens a client for an endpoint.
type Dialer func(endpoint string) (Client, error)
