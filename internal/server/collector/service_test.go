package collector

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/identity"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/dmitrijs2005/reportkeeper/internal/server/auth"
	"github.com/dmitrijs2005/reportkeeper/internal/server/bulletins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type put struct {
	account, name string
	data          []byte
}

type fakeStore struct {
	puts []put
	err  error
}

func (f *fakeStore) Put(_ context.Context, account, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.puts = append(f.puts, put{account, name, data})
	return "accounts/" + account + "/" + name, nil
}

func newAccount(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return identity.EncodePublicKey(pub), priv
}

func tokenParams(pub string, priv ed25519.PrivateKey) []string {
	return []string{pub, base64.StdEncoding.EncodeToString(ed25519.Sign(priv, []byte(pub)))}
}

func TestService_Ping(t *testing.T) {
	s := NewService(&fakeStore{}, "k", time.Minute, nil, logging.NewNop())
	assert.Equal(t, Reply{Code: outcome.CodeOK, Payload: []string{"pong"}}, s.Ping(context.Background()))
}

func TestService_AccessToken(t *testing.T) {
	pub, priv := newAccount(t)
	code, err := identity.PublicCode(pub)
	require.NoError(t, err)
	_, otherPriv := newAccount(t)

	tests := []struct {
		name     string
		allowed  []string
		params   []string
		wantCode string
	}{
		{name: "open registry", params: tokenParams(pub, priv), wantCode: outcome.CodeOK},
		{name: "allowlisted", allowed: []string{code}, params: tokenParams(pub, priv), wantCode: outcome.CodeOK},
		{name: "not allowlisted", allowed: []string{"00000"}, params: tokenParams(pub, priv), wantCode: outcome.CodeNoTokenAvailable},
		{name: "wrong key signed", params: []string{pub, tokenParams(pub, otherPriv)[1]}, wantCode: CodeInvalidSignature},
		{name: "signature not base64", params: []string{pub, "%%%"}, wantCode: CodeInvalidSignature},
		{name: "bad key", params: []string{"nope", "c2ln"}, wantCode: CodeBadRequest},
		{name: "missing params", params: []string{pub}, wantCode: CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(&fakeStore{}, "secret", time.Minute, tt.allowed, logging.NewNop())

			r := s.AccessToken(context.Background(), tt.params)
			assert.Equal(t, tt.wantCode, r.Code)
			if tt.wantCode != outcome.CodeOK {
				assert.Empty(t, r.Payload)
				return
			}
			require.Len(t, r.Payload, 1)
			account, err := auth.GetAccountIDFromToken(r.Payload[0], []byte("secret"))
			require.NoError(t, err)
			assert.Equal(t, pub, account)
		})
	}
}

func TestService_Upload(t *testing.T) {
	pub, _ := newAccount(t)
	code, err := identity.PublicCode(pub)
	require.NoError(t, err)
	data := base64.StdEncoding.EncodeToString([]byte("zip"))

	t.Run("stored under public code", func(t *testing.T) {
		store := &fakeStore{}
		s := NewService(store, "k", time.Minute, nil, logging.NewNop())

		r := s.Upload(context.Background(), pub, []string{"b.zip", data})
		assert.Equal(t, outcome.CodeOK, r.Code)
		assert.Equal(t, []string{"accounts/" + code + "/b.zip"}, r.Payload)
		require.Len(t, store.puts, 1)
		assert.Equal(t, put{code, "b.zip", []byte("zip")}, store.puts[0])
	})

	tests := []struct {
		name     string
		account  string
		params   []string
		storeErr error
		wantCode string
	}{
		{name: "no account", account: "", params: []string{"b.zip", data}, wantCode: CodeUnauthorized},
		{name: "malformed account", account: "xyz", params: []string{"b.zip", data}, wantCode: CodeUnauthorized},
		{name: "missing data", account: pub, params: []string{"b.zip"}, wantCode: CodeBadRequest},
		{name: "data not base64", account: pub, params: []string{"b.zip", "%%%"}, wantCode: CodeBadRequest},
		{name: "bad name", account: pub, params: []string{"../b", data}, storeErr: bulletins.ErrInvalidName, wantCode: CodeBadRequest},
		{name: "store down", account: pub, params: []string{"b.zip", data}, storeErr: errors.New("disk full"), wantCode: CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(&fakeStore{err: tt.storeErr}, "k", time.Minute, nil, logging.NewNop())
			assert.Equal(t, tt.wantCode, s.Upload(context.Background(), tt.account, tt.params).Code)
		})
	}
}

func TestService_UploadClassifiesOnClient(t *testing.T) {
	pub, _ := newAccount(t)
	s := NewService(&fakeStore{}, "k", time.Minute, nil, logging.NewNop())

	r := s.Upload(context.Background(), pub, []string{"b.zip", base64.StdEncoding.EncodeToString([]byte("x"))})
	o := outcome.ClassifyAck(outcome.OpResend, &outcome.Response{ResultCode: r.Code, ResultPayload: r.Payload})
	assert.Equal(t, outcome.Succeeded, o.Kind)

	r = s.Upload(context.Background(), "", nil)
	o = outcome.ClassifyAck(outcome.OpResend, &outcome.Response{ResultCode: r.Code})
	assert.Equal(t, outcome.ServerUnavailable, o.Kind)
}
