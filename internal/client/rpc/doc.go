// Package rpc is the client side of the remote collaborator.
//
// The server exposes positional-parameter methods. A call carries a method
// name and a list of parameters and returns a raw envelope of a result code
// and a list of payload strings. Both directions are encoded as
// structpb.ListValue and sent as a unary gRPC call to /<service>/<method>,
// so no generated stubs are needed.
//
// # Error Handling
//
// Transport failures are returned as *TransportError. The gRPC status code
// is mapped onto ErrUnavailable or ErrUnauthorized where possible, so callers
// can match with errors.Is.
package rpc
