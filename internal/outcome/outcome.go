// Package outcome defines the closed set of results a background sync
// operation can end with, and the pure classifier that maps a raw server
// response envelope onto that set.
package outcome

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind tags an Outcome.
type Kind int

const (
	ConnectivityOk Kind = iota + 1
	ConnectivityDown
	TokenRetrieved
	TokenUnavailable
	ServerUnavailable
	EmptyResponse
	Cancelled
	// InternalError is an unexpected failure inside the client (a panic, a
	// missing identity). It replaces "no result" so callers never have to
	// special-case absence.
	InternalError
	// Succeeded is a generic OK for calls that carry no token.
	Succeeded
	NoOpNoPending
	NoOpOffline
	ResendCompleted
)

var kindNames = map[Kind]string{
	ConnectivityOk:    "connectivity_ok",
	ConnectivityDown:  "connectivity_down",
	TokenRetrieved:    "token_retrieved",
	TokenUnavailable:  "token_unavailable",
	ServerUnavailable: "server_unavailable",
	EmptyResponse:     "empty_response",
	Cancelled:         "cancelled",
	InternalError:     "internal_error",
	Succeeded:         "succeeded",
	NoOpNoPending:     "noop_no_pending",
	NoOpOffline:       "noop_offline",
	ResendCompleted:   "resend_completed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operation names a background operation.
type Operation string

const (
	OpProbe  Operation = "probe"
	OpToken  Operation = "access_token"
	OpResend Operation = "resend"
)

// Outcome is the single terminal value of one background operation.
type Outcome struct {
	Kind      Kind
	Operation Operation
	TaskID    uuid.UUID

	// Token is set for TokenRetrieved.
	Token string

	// Sent and Failed are set for ResendCompleted.
	Sent   int
	Failed int

	// Err carries the cause for failure kinds, when there is one.
	Err error

	// Stale is set when the session locked while the operation ran. The
	// outcome is still delivered; the caller decides whether to show it.
	Stale bool
}

// OK reports whether the outcome is a success of its operation.
func (o Outcome) OK() bool {
	switch o.Kind {
	case ConnectivityOk, TokenRetrieved, Succeeded, ResendCompleted:
		return true
	}
	return false
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%s: %s", o.Operation, o.Kind)
	if o.Kind == ResendCompleted {
		s += fmt.Sprintf(" (sent %d, failed %d)", o.Sent, o.Failed)
	}
	if o.Err != nil {
		s += ": " + o.Err.Error()
	}
	if o.Stale {
		s += " [stale]"
	}
	return s
}
