package guard

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func writeSigned(t *testing.T, dir string, priv ed25519.PrivateKey, payload []byte) string {
	t.Helper()
	path := filepath.Join(dir, "desktopHQ.json")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	require.NoError(t, os.WriteFile(SignaturePath(path), EncodeSignature(ed25519.Sign(priv, payload)), 0o600))
	return path
}

func TestVerify(t *testing.T) {
	pub, priv := newKey(t)
	otherPub, _ := newKey(t)
	payload := []byte(`{"desktop":"key"}`)

	tests := []struct {
		name    string
		prepare func(t *testing.T, dir string) string
		key     ed25519.PublicKey
		want    Result
	}{
		{
			name: "valid signature",
			prepare: func(t *testing.T, dir string) string {
				return writeSigned(t, dir, priv, payload)
			},
			key:  pub,
			want: VerifiedOk,
		},
		{
			name: "target missing",
			prepare: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "absent.json")
			},
			key:  pub,
			want: Missing,
		},
		{
			name: "target missing but stray signature present",
			prepare: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "absent.json")
				require.NoError(t, os.WriteFile(SignaturePath(path), EncodeSignature(ed25519.Sign(priv, payload)), 0o600))
				return path
			},
			key:  pub,
			want: Missing,
		},
		{
			name: "signature file absent",
			prepare: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "f.json")
				require.NoError(t, os.WriteFile(path, payload, 0o600))
				return path
			},
			key:  pub,
			want: Tampered,
		},
		{
			name: "payload byte flipped",
			prepare: func(t *testing.T, dir string) string {
				path := writeSigned(t, dir, priv, payload)
				b, err := os.ReadFile(path)
				require.NoError(t, err)
				b[0] ^= 0x01
				require.NoError(t, os.WriteFile(path, b, 0o600))
				return path
			},
			key:  pub,
			want: Tampered,
		},
		{
			name: "signature garbage",
			prepare: func(t *testing.T, dir string) string {
				path := writeSigned(t, dir, priv, payload)
				require.NoError(t, os.WriteFile(SignaturePath(path), []byte("%%%not base64"), 0o600))
				return path
			},
			key:  pub,
			want: Tampered,
		},
		{
			name: "signed by another key",
			prepare: func(t *testing.T, dir string) string {
				return writeSigned(t, dir, priv, payload)
			},
			key:  otherPub,
			want: Tampered,
		},
		{
			name: "malformed public key",
			prepare: func(t *testing.T, dir string) string {
				return writeSigned(t, dir, priv, payload)
			},
			key:  ed25519.PublicKey{1, 2, 3},
			want: Tampered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.prepare(t, t.TempDir())
			got, err := Verify(path, SignaturePath(path), tt.key)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestVerify_UnreadableTargetIsIOError(t *testing.T) {
	pub, _ := newKey(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "is-a-dir")
	require.NoError(t, os.Mkdir(path, 0o700))

	_, err := Verify(path, SignaturePath(path), pub)
	require.ErrorIs(t, err, ErrIO)
}

func TestVerify_UnreadableSignatureIsIOError(t *testing.T) {
	pub, _ := newKey(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "f.json")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(SignaturePath(path), 0o700))

	_, err := Verify(path, SignaturePath(path), pub)
	require.ErrorIs(t, err, ErrIO)
}

func TestSignatureEncoding_RoundTrip(t *testing.T) {
	sig := bytes.Repeat([]byte{0xab}, ed25519.SignatureSize)
	got, err := DecodeSignature(EncodeSignature(sig))
	require.NoError(t, err)
	require.Equal(t, sig, got)
}

func TestResult_String(t *testing.T) {
	require.Equal(t, "missing", Missing.String())
	require.Equal(t, "verified", VerifiedOk.String())
	require.Equal(t, "tampered", Tampered.String())
	require.True(t, VerifiedOk.Trusted())
	require.False(t, Tampered.Trusted())
	require.False(t, Missing.Trusted())
}

func TestGuard_TrustLogsTampered(t *testing.T) {
	pub, priv := newKey(t)
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	g := New(log)

	path := writeSigned(t, t.TempDir(), priv, []byte("payload"))
	require.NoError(t, os.WriteFile(path, []byte("payl0ad"), 0o600))

	res, err := g.Trust(context.Background(), path, pub)
	require.NoError(t, err)
	require.Equal(t, Tampered, res)
	require.False(t, res.Trusted())
	require.True(t, strings.Contains(buf.String(), "level=WARN"), buf.String())
}
