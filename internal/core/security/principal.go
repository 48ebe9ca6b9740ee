package security

import (
	"context"

	"github.com/hits/carschool/internal/core/domain"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    int64
	Roles domain.RoleSet
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
