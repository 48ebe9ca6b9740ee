package ports

import (
	"context"

	"github.com/hits/carschool/internal/core/domain"
)

// IdentityFilter narrows ListUsers. Empty fields are ignored.
type IdentityFilter struct {
	Name  string // substring of first or last name, case-insensitive
	Email string // substring of email, case-insensitive
	Role  domain.RoleName
}

// IdentityStore owns persistence of identities and the role registry.
//
// Save inserts when identity.ID is zero and otherwise performs an atomic
// compare-and-swap on identity.Version; a lost race yields
// domain.ErrVersionConflict. Concurrent writers to the same identity rely on
// this check, the services add no locking of their own.
type IdentityStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Search(ctx context.Context, filter IdentityFilter) ([]*domain.Identity, error)
	Save(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	Delete(ctx context.Context, identity *domain.Identity) error

	FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	// SaveRole registers name in the role registry if it is not there yet.
	SaveRole(ctx context.Context, name domain.RoleName) error
}
