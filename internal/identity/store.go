package identity

import (
	"crypto/ed25519"
	"sync"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
)

// Store is the single owner of the active key pair.
type Store struct {
	mu sync.RWMutex
	kp *KeyPair

	// vaultPath is where Persist writes the sealed key pair; empty for copies.
	vaultPath string
	readOnly  bool
}

// NewStore wraps kp. The store takes ownership of kp.
func NewStore(kp *KeyPair) *Store {
	return &Store{kp: kp}
}

func (s *Store) active() (*KeyPair, error) {
	if s.kp == nil {
		return nil, ErrNoActiveIdentity
	}
	return s.kp, nil
}

// HasIdentity reports whether a key pair is loaded.
func (s *Store) HasIdentity() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kp != nil
}

// PublicKey returns a copy of the public key.
func (s *Store) PublicKey() (ed25519.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, err := s.active()
	if err != nil {
		return nil, err
	}
	return kp.PublicKey(), nil
}

// PublicKeyString returns the account id.
func (s *Store) PublicKeyString() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, err := s.active()
	if err != nil {
		return "", err
	}
	return kp.PublicKeyString(), nil
}

// PublicIdentity recomputes both public codes from the active key.
func (s *Store) PublicIdentity() (PublicIdentity, error) {
	key, err := s.PublicKeyString()
	if err != nil {
		return PublicIdentity{}, err
	}
	return DerivePublicIdentity(key)
}

// Sign signs data with the private key.
func (s *Store) Sign(data []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, err := s.active()
	if err != nil {
		return nil, err
	}
	return kp.sign(data)
}

// Clear wipes the in-memory key material. It is safe to call repeatedly.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kp != nil {
		s.kp.wipe()
		s.kp = nil
	}
}

// SetKeyPair installs kp as the active key pair, wiping any previous one.
func (s *Store) SetKeyPair(kp *KeyPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kp != nil && s.kp != kp {
		s.kp.wipe()
	}
	s.kp = kp
}

// Duplicate returns an independent store re-derived from the raw key bytes.
// The copy never writes back: Persist on it fails with ErrReadOnlyCopy.
func (s *Store) Duplicate() (*Store, error) {
	s.mu.RLock()
	kp, err := s.active()
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	data := kp.Data()
	s.mu.RUnlock()

	defer common.WipeByteArray(data)

	dup, err := KeyPairFromData(data)
	if err != nil {
		return nil, err
	}
	return &Store{kp: dup, readOnly: true}, nil
}
