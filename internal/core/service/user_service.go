package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

// UserService implements identity management. Every mutation is a single
// read-modify-write of one identity; the store's version check resolves
// concurrent writers.
type UserService struct {
	store  ports.IdentityStore
	hasher *security.PasswordHasher
	now    func() time.Time
	log    zerolog.Logger
}

func NewUserService(store ports.IdentityStore, hasher *security.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{store: store, hasher: hasher, now: time.Now, log: log}
}

// CreateUser registers a new active identity holding exactly the submitted roles.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.Identity, error) {
	roles, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmailOrPhone
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.store.Save(ctx, &domain.Identity{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Age:          in.Age,
		Phone:        strings.TrimSpace(in.Phone),
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Strs("roles", created.Roles.Strings()).Msg("user created")
	return created, nil
}

// ListUsers returns identities matching filter.
func (s *UserService) ListUsers(ctx context.Context, f ports.UserFilter) ([]*domain.Identity, error) {
	filter := ports.IdentityFilter{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
	}
	if f.Role != "" {
		role, err := domain.ParseRoleName(f.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = role
	}
	return s.store.Search(ctx, filter)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.store.FindByID(ctx, id)
}

// UpdateUser replaces the profile fields and the role set of an identity.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.Identity, error) {
	roles, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if email != identity.Email {
		exists, err := s.store.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if exists {
			return nil, domain.ErrDuplicateEmailOrPhone
		}
	}

	identity.FirstName = strings.TrimSpace(in.FirstName)
	identity.LastName = strings.TrimSpace(in.LastName)
	identity.Age = in.Age
	identity.Phone = strings.TrimSpace(in.Phone)
	identity.Email = email
	identity.Roles = roles

	return s.save(ctx, identity)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, identity); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) ActivateUser(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.setActive(ctx, id, true)
}

func (s *UserService) DeactivateUser(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.setActive(ctx, id, false)
}

func (s *UserService) setActive(ctx context.Context, id int64, active bool) (*domain.Identity, error) {
	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Active == active {
		if active {
			return nil, domain.ErrAlreadyActive
		}
		return nil, domain.ErrAlreadyInactive
	}

	identity.Active = active
	updated, err := s.save(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Bool("active", active).Msg("user activation changed")
	return updated, nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, callerID int64, oldPassword, newPassword string) (*domain.Identity, error) {
	identity, err := s.store.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Matches(oldPassword, identity.PasswordHash) {
		return nil, domain.ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	identity.PasswordHash = hash

	updated, err := s.save(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", callerID).Msg("password changed")
	return updated, nil
}

func (s *UserService) Profile(ctx context.Context, callerID int64) (*domain.Identity, error) {
	return s.store.FindByID(ctx, callerID)
}

// AddRole grants a role. Granting a role the identity already holds returns
// the stored identity unchanged without writing to the store.
func (s *UserService) AddRole(ctx context.Context, id int64, roleName string) (*domain.Identity, error) {
	role, err := domain.ParseRoleName(roleName)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Roles.Has(role) {
		return identity, nil
	}

	if _, err := s.store.FindRoleByName(ctx, role); err != nil {
		return nil, err
	}
	identity.GrantRole(role)

	updated, err := s.save(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Str("role", string(role)).Msg("role added")
	return updated, nil
}

// RemoveRole revokes a role. It fails with domain.ErrRoleNotPresent when the
// role is not held and domain.ErrCannotRemoveLastRole when it is the only one.
func (s *UserService) RemoveRole(ctx context.Context, id int64, roleName string) (*domain.Identity, error) {
	role, err := domain.ParseRoleName(roleName)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := identity.RevokeRole(role); err != nil {
		return nil, err
	}

	updated, err := s.save(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Str("role", string(role)).Msg("role removed")
	return updated, nil
}

// ChangeRoles replaces the identity's role set with a non-empty set.
func (s *UserService) ChangeRoles(ctx context.Context, id int64, roleNames []string) (*domain.Identity, error) {
	roles, err := s.resolveRoles(ctx, roleNames)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := identity.ReplaceRoles(roles); err != nil {
		return nil, err
	}

	updated, err := s.save(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Strs("roles", updated.Roles.Strings()).Msg("roles replaced")
	return updated, nil
}

// resolveRoles parses names and checks each one against the role registry.
func (s *UserService) resolveRoles(ctx context.Context, names []string) (domain.RoleSet, error) {
	if len(names) == 0 {
		return nil, domain.ErrEmptyRoleSet
	}
	roles, err := domain.RoleSetFromStrings(names)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if _, err := s.store.FindRoleByName(ctx, r); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (s *UserService) save(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	identity.UpdatedAt = s.now().UTC()
	updated, err := s.store.Save(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.log.Warn().Int64("user_id", identity.ID).Msg("concurrent update rejected")
		}
		return nil, err
	}
	return updated, nil
}

// normalizeEmail only trims; lookups by email are exact matches.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
