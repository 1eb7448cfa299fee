// Package collector implements the remote side of the client protocol:
// liveness, access-token issuance and bulletin intake.
package collector

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/identity"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/dmitrijs2005/reportkeeper/internal/server/auth"
	"github.com/dmitrijs2005/reportkeeper/internal/server/bulletins"
)

// Result codes beyond the ones the client classifies by name.
const (
	CodeBadRequest       = "badRequest"
	CodeInvalidSignature = "invalidSignature"
	CodeUnauthorized     = "unauthorized"
	CodeServerError      = "serverError"
)

// Reply is a result code with its payload.
type Reply struct {
	Code    string
	Payload []string
}

func ok(payload ...string) Reply { return Reply{Code: outcome.CodeOK, Payload: payload} }

func fail(code string) Reply { return Reply{Code: code} }

// Service answers client calls. Accounts are identified by their public
// key; the allowlist is keyed by the 20-digit public code.
type Service struct {
	store    bulletins.Store
	secret   []byte
	tokenTTL time.Duration
	allowed  map[string]struct{}
	log      logging.Logger
}

func NewService(store bulletins.Store, secret string, tokenTTL time.Duration, allowedCodes []string, log logging.Logger) *Service {
	allowed := make(map[string]struct{}, len(allowedCodes))
	for _, c := range allowedCodes {
		allowed[c] = struct{}{}
	}
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		allowed:  allowed,
		log:      log.With("module", "collector"),
	}
}

func (s *Service) Ping(context.Context) Reply {
	return ok("pong")
}

// AccessToken expects [publicKey, base64(signature over publicKey)].
func (s *Service) AccessToken(ctx context.Context, params []string) Reply {
	if len(params) < 2 {
		return fail(CodeBadRequest)
	}
	pubString := params[0]

	pub, err := identity.ParsePublicKey(pubString)
	if err != nil {
		return fail(CodeBadRequest)
	}
	sig, err := base64.StdEncoding.DecodeString(params[1])
	if err != nil || !ed25519.Verify(pub, []byte(pubString), sig) {
		s.log.Warn(ctx, "token request with bad signature")
		return fail(CodeInvalidSignature)
	}

	code, err := identity.PublicCode(pubString)
	if err != nil {
		return fail(CodeBadRequest)
	}
	if !s.admitted(code) {
		s.log.Info(ctx, "no token for account", "code", code)
		return fail(outcome.CodeNoTokenAvailable)
	}

	token, err := auth.GenerateToken(pubString, s.secret, s.tokenTTL)
	if err != nil {
		s.log.Error(ctx, "token generation failed", "error", err)
		return fail(CodeServerError)
	}
	s.log.Info(ctx, "token issued", "code", code)
	return ok(token)
}

// Upload expects [name, base64(zip bytes)] from the account in accountID.
func (s *Service) Upload(ctx context.Context, accountID string, params []string) Reply {
	code, err := identity.PublicCode(accountID)
	if accountID == "" || err != nil {
		return fail(CodeUnauthorized)
	}
	if len(params) < 2 {
		return fail(CodeBadRequest)
	}
	data, err := base64.StdEncoding.DecodeString(params[1])
	if err != nil {
		return fail(CodeBadRequest)
	}

	key, err := s.store.Put(ctx, code, params[0], data)
	switch {
	case errors.Is(err, bulletins.ErrInvalidName), errors.Is(err, bulletins.ErrInvalidAccount):
		return fail(CodeBadRequest)
	case err != nil:
		s.log.Error(ctx, "bulletin store failed", "name", params[0], "error", err)
		return fail(CodeServerError)
	}
	s.log.Info(ctx, "bulletin stored", "code", code, "key", key, "size", len(data))
	return ok(key)
}

func (s *Service) admitted(code string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[code]
	return ok
}
