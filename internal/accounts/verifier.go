package accounts

import (
	"context"

	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/session"
)

// tokenVerifier checks one request's tokens for the session gate
type tokenVerifier struct {
	svc    *Service
	tokens apiclient.Tokens
	clear  func()
}

// Verifier returns a session.Verifier for the given tokens. clear removes the
// locally persisted tokens (the cookies).
func (s *Service) Verifier(tokens apiclient.Tokens, clear func()) session.Verifier {
	return &tokenVerifier{svc: s, tokens: tokens, clear: clear}
}

func (v *tokenVerifier) Check(ctx context.Context) (*session.User, error) {
	return v.svc.backends.Primary.Check(ctx, v.tokens.Primary)
}

// Invalidate drops the local tokens first so a failing API cannot keep them
// alive. A visitor without tokens has nothing to invalidate.
func (v *tokenVerifier) Invalidate(ctx context.Context) error {
	if v.tokens.Empty() {
		return nil
	}
	if v.clear != nil {
		v.clear()
	}
	return v.svc.revoke(ctx, v.tokens)
}
