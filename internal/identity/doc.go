// Package identity owns the account key pair and everything derived from it.
//
// # Overview
//
// A Store holds exactly one active KeyPair. From it the package derives the
// public identity (raw public key, legacy 20-digit public code and the
// 40-digit public code) and produces the signed identity export: a payload
// file plus a detached signature written next to it.
//
// Both public code formats are pure functions of the public key string, so
// they are recomputed on every call and never stored.
//
// # Key material at rest
//
// The key pair is only persisted sealed under the account password (see
// OpenVault, CreateVault and (*Store).Persist). Clear wipes the in-memory
// copy; until SetKeyPair is called again every identity operation fails with
// ErrNoActiveIdentity.
//
// # Errors
//
// ErrMalformedKey, ErrSigning, ErrExportIO, ErrNoActiveIdentity,
// ErrReadOnlyCopy, ErrVaultNotFound and ErrWrongPassword are matched with
// errors.Is.
package identity
