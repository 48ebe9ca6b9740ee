package ports

import (
	"context"

	"github.com/hits/carschool/internal/core/domain"
)

// CreateUserInput carries the data of a new identity.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Age       int
	Phone     string
	Email     string
	Password  string
	Roles     []string
}

// UpdateUserInput replaces the profile fields and role set of an identity.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Age       int
	Phone     string
	Email     string
	Roles     []string
}

// UserFilter carries the optional query parameters of the list endpoint.
type UserFilter struct {
	Name  string
	Email string
	Role  string
}

// UserService defines use-case operations on identities. Operations acting
// on "the caller" take the caller id resolved by the request authenticator.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.Identity, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*domain.Identity, error)
	GetUser(ctx context.Context, id int64) (*domain.Identity, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*domain.Identity, error)
	DeleteUser(ctx context.Context, id int64) error
	ActivateUser(ctx context.Context, id int64) (*domain.Identity, error)
	DeactivateUser(ctx context.Context, id int64) (*domain.Identity, error)
	ChangePassword(ctx context.Context, callerID int64, oldPassword, newPassword string) (*domain.Identity, error)
	Profile(ctx context.Context, callerID int64) (*domain.Identity, error)
	AddRole(ctx context.Context, id int64, role string) (*domain.Identity, error)
	RemoveRole(ctx context.Context, id int64, role string) (*domain.Identity, error)
	ChangeRoles(ctx context.Context, id int64, roles []string) (*domain.Identity, error)
}
