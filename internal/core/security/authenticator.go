package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/hits/carschool/internal/core/domain"
)

// IdentityFinder is the slice of the identity store the authenticator needs.
type IdentityFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
}

// Authenticator turns an Authorization header into a Principal. Roles are
// read from the store on every request, so role changes take effect
// immediately for tokens that are already issued.
type Authenticator struct {
	codec *TokenCodec
	store IdentityFinder
}

func NewAuthenticator(codec *TokenCodec, store IdentityFinder) *Authenticator {
	return &Authenticator{codec: codec, store: store}
}

// Authenticate resolves the caller behind header. It fails with
// domain.ErrMalformedAuthHeader, domain.ErrInvalidOrExpiredToken or
// domain.ErrIdentityNotFound; any other error comes from the store.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}

	tok, err := a.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	identity, err := a.store.FindByID(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &Principal{ID: identity.ID, Roles: identity.Roles}, nil
}
