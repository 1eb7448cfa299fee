package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/filex"
	"github.com/dmitrijs2005/reportkeeper/internal/guard"
)

// ExportFileName is the conventional name of the exported public identity.
const ExportFileName = "Mobile_Public_Account_ID.mpi"

const exportFormatVersion = 1

// SignedExport describes an identity export that landed on disk.
type SignedExport struct {
	Path          string
	SignaturePath string
	Payload       []byte
	Signature     []byte
}

type exportDocument struct {
	Version      int       `json:"version"`
	PublicKey    string    `json:"public_key"`
	PublicCode   string    `json:"public_code"`
	PublicCode40 string    `json:"public_code_40"`
	ExportedAt   time.Time `json:"exported_at"`
}

// ExportSigned writes the public identity to path and its detached signature
// to guard.SignaturePath(path).
//
// Both files are staged as temp files first. Any previous signature is removed
// before the payload is renamed into place, so an interrupted export leaves
// at most an unsigned payload, which readers classify as untrusted. If the
// signature cannot be placed the payload is removed as well.
func (s *Store) ExportSigned(path string) (*SignedExport, error) {
	payload, sig, err := s.signedPayload()
	if err != nil {
		return nil, err
	}

	sigPath := guard.SignaturePath(path)

	tmpPayload, err := filex.WriteTemp(path, payload, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: stage %s: %w", ErrExportIO, path, err)
	}
	tmpSig, err := filex.WriteTemp(sigPath, guard.EncodeSignature(sig), 0o644)
	if err != nil {
		os.Remove(tmpPayload)
		return nil, fmt.Errorf("%w: stage %s: %w", ErrExportIO, sigPath, err)
	}

	if err := os.Remove(sigPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Remove(tmpPayload)
		os.Remove(tmpSig)
		return nil, fmt.Errorf("%w: remove old signature: %w", ErrExportIO, err)
	}
	if err := os.Rename(tmpPayload, path); err != nil {
		os.Remove(tmpPayload)
		os.Remove(tmpSig)
		return nil, fmt.Errorf("%w: place %s: %w", ErrExportIO, path, err)
	}
	if err := os.Rename(tmpSig, sigPath); err != nil {
		os.Remove(tmpSig)
		os.Remove(path)
		return nil, fmt.Errorf("%w: place %s: %w", ErrExportIO, sigPath, err)
	}

	return &SignedExport{Path: path, SignaturePath: sigPath, Payload: payload, Signature: sig}, nil
}

func (s *Store) signedPayload() ([]byte, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, err := s.active()
	if err != nil {
		return nil, nil, err
	}

	pi, err := DerivePublicIdentity(kp.PublicKeyString())
	if err != nil {
		return nil, nil, err
	}

	payload, err := json.MarshalIndent(exportDocument{
		Version:      exportFormatVersion,
		PublicKey:    pi.PublicKey,
		PublicCode:   pi.PublicCode,
		PublicCode40: pi.PublicCode40,
		ExportedAt:   time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encode identity: %w", ErrSigning, err)
	}

	sig, err := kp.sign(payload)
	if err != nil {
		return nil, nil, err
	}
	return payload, sig, nil
}

// ReadExport parses an exported identity payload and returns the identity
// it claims. It does not check the signature; use guard.Verify for that.
func ReadExport(payload []byte) (PublicIdentity, error) {
	var doc exportDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return PublicIdentity{}, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	pi, err := DerivePublicIdentity(doc.PublicKey)
	if err != nil {
		return PublicIdentity{}, err
	}
	if pi.PublicCode != doc.PublicCode || pi.PublicCode40 != doc.PublicCode40 {
		return PublicIdentity{}, fmt.Errorf("%w: public codes do not match key", ErrMalformedKey)
	}
	return pi, nil
}
