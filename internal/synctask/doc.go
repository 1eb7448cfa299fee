// Package synctask runs the client's background network operations:
// connectivity probe, access-token fetch and resend of pending submissions.
//
// Every call returns a *Task and produces exactly one outcome.Outcome,
// delivered to the runner's OutcomeSink and kept on the Task. Operations
// refused up front (session locked, nothing to resend, offline) complete
// synchronously without touching the network. Started operations run on
// their own goroutine; a panic inside one is turned into InternalError.
//
// Locking the session does not abort running operations. Their outcomes
// are still delivered, marked Stale.
package synctask
