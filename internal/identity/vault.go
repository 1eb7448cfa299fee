package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/cryptox"
	"github.com/dmitrijs2005/reportkeeper/internal/filex"
)

// VaultFileName is the conventional name of the sealed key pair file.
const VaultFileName = "keypair.dat"

// CreateVault generates a new key pair, seals it under password at path and
// returns a store bound to that vault. An existing vault is overwritten.
func CreateVault(path string, password []byte) (*Store, error) {
	kp, err := NewKeyPair()
	if err != nil {
		return nil, err
	}
	s := &Store{kp: kp, vaultPath: path}
	if err := s.Persist(password); err != nil {
		kp.wipe()
		return nil, err
	}
	return s, nil
}

// OpenVault unseals the key pair at path and returns a store bound to it.
func OpenVault(path string, password []byte) (*Store, error) {
	kp, err := LoadKeyPair(path, password)
	if err != nil {
		return nil, err
	}
	return &Store{kp: kp, vaultPath: path}, nil
}

// LoadKeyPair unseals the key pair at path without building a store, for
// re-establishing an identity after the session was locked.
func LoadKeyPair(path string, password []byte) (*KeyPair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrVaultNotFound
		}
		return nil, fmt.Errorf("read key vault: %w", err)
	}

	var sealed cryptox.Sealed
	if err := json.Unmarshal(b, &sealed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongPassword, err)
	}

	data, err := cryptox.Open(&sealed, password)
	if err != nil {
		return nil, ErrWrongPassword
	}
	defer common.WipeByteArray(data)

	return KeyPairFromData(data)
}

// Persist seals the active key pair under password into the store's vault.
func (s *Store) Persist(password []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readOnly {
		return ErrReadOnlyCopy
	}
	if s.vaultPath == "" {
		return ErrVaultNotFound
	}
	kp, err := s.active()
	if err != nil {
		return err
	}

	data := kp.Data()
	defer common.WipeByteArray(data)

	sealed, err := cryptox.Seal(data, password)
	if err != nil {
		return fmt.Errorf("seal key pair: %w", err)
	}
	b, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("encode key vault: %w", err)
	}
	if err := filex.WriteFileAtomic(s.vaultPath, b, 0o600); err != nil {
		return fmt.Errorf("write key vault: %w", err)
	}
	return nil
}
