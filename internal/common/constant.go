// Package common contains shared constants, sentinel errors and small
// byte helpers used across reportkeeper components.
package common

// AccountIDHeaderName is the gRPC metadata key used to carry the account
// public key on outbound requests.
const AccountIDHeaderName = "x-account-id"

// AccessTokenHeaderName optionally carries a previously issued access token.
const AccessTokenHeaderName = "x-access-token"

// PackagedSubmissionExt is the file extension of a packaged submission
// waiting in the outbox.
const PackagedSubmissionExt = ".zip"

// SignatureSuffix is appended to a file name to get its detached signature.
const SignatureSuffix = ".sig"
