package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_CreateThenOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)

	created, err := CreateVault(path, []byte("correct horse"))
	require.NoError(t, err)
	want, err := created.PublicKeyString()
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), want, "vault must not hold key material in plaintext")

	opened, err := OpenVault(path, []byte("correct horse"))
	require.NoError(t, err)
	got, err := opened.PublicKeyString()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVault_WrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)
	_, err := CreateVault(path, []byte("right"))
	require.NoError(t, err)

	_, err = OpenVault(path, []byte("wrong"))
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestVault_Missing(t *testing.T) {
	_, err := OpenVault(filepath.Join(t.TempDir(), VaultFileName), []byte("pw"))
	require.ErrorIs(t, err, ErrVaultNotFound)
}

func TestVault_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadKeyPair(path, []byte("pw"))
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestPersist_WithoutVault(t *testing.T) {
	s := newTestStore(t)
	require.ErrorIs(t, s.Persist([]byte("pw")), ErrVaultNotFound)
}
