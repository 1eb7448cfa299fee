// Package guard decides whether a file persisted on disk may be trusted,
// by checking it against a detached ed25519 signature stored next to it.
//
// Absence is a legitimate state (never provisioned) and is reported as
// Missing, not as an error. A present file whose signature is absent,
// undecodable or wrong is Tampered. Only paths that exist but cannot be
// read produce ErrIO.
package guard

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
)

// ErrIO reports a present but unreadable file or signature.
var ErrIO = errors.New("signed file unreadable")

// Result is the classified outcome of a verification.
type Result int

const (
	Missing Result = iota
	VerifiedOk
	Tampered
)

func (r Result) String() string {
	switch r {
	case Missing:
		return "missing"
	case VerifiedOk:
		return "verified"
	case Tampered:
		return "tampered"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Trusted is true only for VerifiedOk.
func (r Result) Trusted() bool { return r == VerifiedOk }

// SignaturePath returns the sibling path holding the detached signature.
func SignaturePath(path string) string {
	return path + common.SignatureSuffix
}

// EncodeSignature renders sig in the on-disk signature file format.
func EncodeSignature(sig []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(sig) + "\n")
}

// DecodeSignature parses a signature file body.
func DecodeSignature(b []byte) ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(bytes.TrimSpace(b)))
}

// Verify checks filePath against the signature at signaturePath.
func Verify(filePath, signaturePath string, publicKey ed25519.PublicKey) (Result, error) {
	payload, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Missing, nil
		}
		return Missing, fmt.Errorf("%w: %s: %w", ErrIO, filePath, err)
	}

	sigFile, err := os.ReadFile(signaturePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Tampered, nil
		}
		return Missing, fmt.Errorf("%w: %s: %w", ErrIO, signaturePath, err)
	}

	if len(publicKey) != ed25519.PublicKeySize {
		return Tampered, nil
	}

	sig, err := DecodeSignature(sigFile)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return Tampered, nil
	}

	if !ed25519.Verify(publicKey, payload, sig) {
		return Tampered, nil
	}
	return VerifiedOk, nil
}

// Guard wraps Verify with logging for start-up trust decisions.
type Guard struct {
	log logging.Logger
}

func New(log logging.Logger) *Guard {
	return &Guard{log: log}
}

// Trust verifies path against its sibling signature and reports whether the
// content may be used. Tampered is treated like Missing but logged, since it
// means corruption or interference rather than a first run.
func (g *Guard) Trust(ctx context.Context, path string, publicKey ed25519.PublicKey) (Result, error) {
	res, err := Verify(path, SignaturePath(path), publicKey)
	if err != nil {
		g.log.Error(ctx, "signed file unreadable", "path", path, "error", err)
		return res, err
	}

	switch res {
	case Tampered:
		g.log.Warn(ctx, "signed file failed verification, ignoring it", "path", path)
	case Missing:
		g.log.Debug(ctx, "signed file not provisioned", "path", path)
	case VerifiedOk:
		g.log.Info(ctx, "signed file verified", "path", path)
	}
	return res, nil
}
