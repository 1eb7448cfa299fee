package identity

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
)

// KeyPair is the account's asymmetric key material. It is opaque outside
// this package.
type KeyPair struct {
	priv   ed25519.PrivateKey
	signer crypto.Signer
}

// NewKeyPair generates a fresh key pair.
func NewKeyPair() (*KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return &KeyPair{priv: priv, signer: priv}, nil
}

// KeyPairFromData rebuilds a key pair from its raw bytes: either a 32-byte
// seed or a 64-byte private key whose public half must match the seed.
// data is copied, so the caller may wipe it afterwards.
func KeyPairFromData(data []byte) (*KeyPair, error) {
	var priv ed25519.PrivateKey

	switch len(data) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(data)
	case ed25519.PrivateKeySize:
		priv = ed25519.NewKeyFromSeed(data[:ed25519.SeedSize])
		if !bytes.Equal(priv[ed25519.SeedSize:], data[ed25519.SeedSize:]) {
			common.WipeByteArray(priv)
			return nil, fmt.Errorf("%w: public half does not match seed", ErrMalformedKey)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrMalformedKey, len(data))
	}

	return &KeyPair{priv: priv, signer: priv}, nil
}

// Data returns a copy of the raw private key bytes.
func (k *KeyPair) Data() []byte {
	return append([]byte(nil), k.priv...)
}

// PublicKey returns the public half.
func (k *KeyPair) PublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), k.priv.Public().(ed25519.PublicKey)...)
}

// PublicKeyString is the portable text form of the public key used as
// account id and as input to the public code functions.
func (k *KeyPair) PublicKeyString() string {
	return EncodePublicKey(k.PublicKey())
}

func (k *KeyPair) sign(data []byte) ([]byte, error) {
	sig, err := k.signer.Sign(rand.Reader, data, crypto.Hash(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return sig, nil
}

func (k *KeyPair) wipe() {
	common.WipeByteArray(k.priv)
	k.priv = nil
	k.signer = nil
}

// EncodePublicKey renders a public key as a key string.
func EncodePublicKey(pub ed25519.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub)
}

// ParsePublicKey parses a key string produced by EncodePublicKey.
func ParsePublicKey(keyMaterial string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key length %d", ErrMalformedKey, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
