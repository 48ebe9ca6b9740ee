package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

// ManagerSeed describes the default manager account created on first start.
type ManagerSeed struct {
	Email    string
	Password string
	Phone    string
}

// Bootstrapper seeds the role registry and the default manager. Both steps
// are idempotent and safe to run on every start.
type Bootstrapper struct {
	store  ports.IdentityStore
	hasher *security.PasswordHasher
	log    zerolog.Logger
}

func NewBootstrapper(store ports.IdentityStore, hasher *security.PasswordHasher, log zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{store: store, hasher: hasher, log: log}
}

func (b *Bootstrapper) Run(ctx context.Context, seed ManagerSeed) error {
	for _, name := range domain.AllRoles() {
		if err := b.store.SaveRole(ctx, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	b.log.Debug().Int("roles", len(domain.AllRoles())).Msg("role registry seeded")

	if seed.Email == "" {
		return nil
	}
	exists, err := b.store.ExistsByEmail(ctx, seed.Email)
	if err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}
	if exists {
		b.log.Debug().Msg("default manager already exists")
		return nil
	}

	hash, err := b.hasher.Hash(seed.Password)
	if err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}
	now := time.Now().UTC()
	created, err := b.store.Save(ctx, &domain.Identity{
		FirstName:    "System",
		LastName:     "Manager",
		Age:          30,
		Phone:        seed.Phone,
		Email:        seed.Email,
		PasswordHash: hash,
		Roles:        domain.NewRoleSet(domain.RoleManager, domain.RoleStudent),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}

	b.log.Info().Int64("user_id", created.ID).Msg("default manager created")
	return nil
}
