package domain

import (
	"fmt"
	"time"
)

// Identity is a registered user of the school: student, teacher or manager.
// Roles is never empty once the identity has been persisted.
type Identity struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Age          int       `json:"age"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        RoleSet   `json:"roles"`
	Active       bool      `json:"is_active"`
	Version      int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Roles = append(RoleSet(nil), i.Roles...)
	return &c
}

// GrantRole adds r to the identity. It reports false, leaving the identity
// untouched, when r is already held.
func (i *Identity) GrantRole(r RoleName) bool {
	if i.Roles.Has(r) {
		return false
	}
	i.Roles = i.Roles.With(r)
	return true
}

// RevokeRole removes r from the identity. The last remaining role can never
// be revoked.
func (i *Identity) RevokeRole(r RoleName) error {
	if !i.Roles.Has(r) {
		return fmt.Errorf("%w: %s", ErrRoleNotPresent, r)
	}
	if len(i.Roles) == 1 {
		return ErrCannotRemoveLastRole
	}
	i.Roles = i.Roles.Without(r)
	return nil
}

// ReplaceRoles sets the identity's role set wholesale.
func (i *Identity) ReplaceRoles(roles RoleSet) error {
	if len(roles) == 0 {
		return ErrEmptyRoleSet
	}
	i.Roles = NewRoleSet(roles...)
	return nil
}
