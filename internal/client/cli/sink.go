package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
)

// deliver is the outcome sink of the command runner.
func (a *App) deliver(o outcome.Outcome) {
	if o.Stale {
		a.log.Debug(context.Background(), "discarding outcome finished after lock", "operation", string(o.Operation), "outcome", o.Kind.String())
		return
	}
	if o.Kind == outcome.TokenRetrieved {
		a.setToken(o.Token)
	}
	printlnFn(describe(o))
}

func describe(o outcome.Outcome) string {
	switch o.Kind {
	case outcome.ConnectivityOk:
		return "Server is reachable."
	case outcome.ConnectivityDown:
		return "Server is not reachable."
	case outcome.TokenRetrieved:
		return "Access token received."
	case outcome.TokenUnavailable:
		return "No access token is available for this account yet."
	case outcome.ServerUnavailable:
		return "Server unavailable, try again later."
	case outcome.EmptyResponse:
		return "Server returned an empty response."
	case outcome.Cancelled:
		return "Operation cancelled."
	case outcome.InternalError:
		return fmt.Sprintf("Internal error: %v", o.Err)
	case outcome.NoOpNoPending:
		return "Nothing to resend."
	case outcome.NoOpOffline:
		return "No connection, nothing was resent."
	case outcome.ResendCompleted:
		return fmt.Sprintf("Resend finished: %d sent, %d failed.", o.Sent, o.Failed)
	default:
		return o.String()
	}
}
