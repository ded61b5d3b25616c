package service

import (
	"context"
	"errors"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/repository"
)

// Gate resolves bearer tokens to accounts and checks roles.
type Gate struct {
	verifier TokenVerifier
	accounts AccountStore
}

func NewGate(verifier TokenVerifier, accounts AccountStore) *Gate {
	return &Gate{verifier: verifier, accounts: accounts}
}

// Authenticate verifies the token and loads its subject.  A token whose
// account has since been deleted is rejected like a bad token.  The role
// is taken from the stored account, not the token, so a role change takes
// effect immediately.
func (g *Gate) Authenticate(ctx context.Context, raw string) (model.Account, error) {
	if raw == "" {
		return model.Account{}, fail(ErrUnauthenticated, "missing bearer token")
	}
	claims, err := g.verifier.Verify(raw)
	if err != nil {
		return model.Account{}, fail(ErrUnauthenticated, "invalid or expired token")
	}
	a, err := g.accounts.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, fail(ErrUnauthenticated, "account no longer exists")
	}
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// RequireRole fails with ErrForbidden unless a.Role is in allowed.
func RequireRole(a model.Account, allowed ...model.Role) error {
	for _, r := range allowed {
		if a.Role == r {
			return nil
		}
	}
	return fail(ErrForbidden, "role %s may not access this resource", a.Role)
}
