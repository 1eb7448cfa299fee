package identity

import "errors"

var (
	ErrMalformedKey     = errors.New("malformed key material")
	ErrSigning          = errors.New("signing failed")
	ErrExportIO         = errors.New("identity export write failed")
	ErrNoActiveIdentity = errors.New("no active identity")

	// ErrReadOnlyCopy is returned when a duplicated store is asked to persist.
	ErrReadOnlyCopy = errors.New("identity copy cannot be persisted")

	ErrVaultNotFound = errors.New("key vault not found")
	ErrWrongPassword = errors.New("wrong password or corrupted key vault")
)
