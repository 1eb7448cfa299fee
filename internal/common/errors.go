package common

import "errors"

var (
	// ErrInternal marks a failure that is neither the caller's nor the
	// server's fault (a recovered panic, a broken invariant).
	ErrInternal = errors.New("internal error")
)
