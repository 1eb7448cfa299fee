// Package cryptox seals small secrets (the account key pair) under a
// password-derived key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 32
	keySize  = 32
)

// ErrDecrypt is returned by Open when the password is wrong or the sealed
// blob was modified. GCM cannot tell the two apart.
var ErrDecrypt = errors.New("cannot decrypt sealed data")

// Sealed is the at-rest form of a secret.
type Sealed struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveMasterKey stretches password with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// Seal encrypts plaintext with AES-256-GCM under a key derived from password
// and a fresh random salt. The derived key is wiped before returning.
func Seal(plaintext, password []byte) (*Sealed, error) {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &Sealed{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Open reverses Seal. The caller owns the returned plaintext and should wipe it.
func Open(s *Sealed, password []byte) ([]byte, error) {
	if s == nil {
		return nil, ErrDecrypt
	}
	key := DeriveMasterKey(password, s.Salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(s.Nonce) != aesgcm.NonceSize() {
		return nil, ErrDecrypt
	}

	plaintext, err := aesgcm.Open(nil, s.Nonce, s.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
