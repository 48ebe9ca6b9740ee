package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

// AuthService implements login and token refresh. It keeps no token state:
// a refreshed token does not invalidate the one it was derived from.
type AuthService struct {
	store    ports.IdentityStore
	codec    *security.TokenCodec
	hasher   *security.PasswordHasher
	tokenTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger

	// decoy is compared against when the email is unknown so that both
	// failure paths spend the same bcrypt time.
	decoy string
}

func NewAuthService(
	store ports.IdentityStore,
	codec *security.TokenCodec,
	hasher *security.PasswordHasher,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	decoy, err := hasher.Hash("decoy-password")
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare decoy digest")
	}
	return &AuthService{
		store:    store,
		codec:    codec,
		hasher:   hasher,
		tokenTTL: tokenTTL,
		now:      time.Now,
		log:      log,
		decoy:    decoy,
	}
}

// Login exchanges an email and password for a token. Unknown emails and
// wrong passwords both fail with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.hasher.Matches(password, s.decoy)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Matches(password, identity.PasswordHash) {
		s.log.Info().Int64("user_id", identity.ID).Msg("login rejected: password mismatch")
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(identity.ID, s.now(), s.tokenTTL, identity.Roles)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	s.log.Info().Int64("user_id", identity.ID).Msg("login succeeded")
	return token, nil
}

// Refresh issues a new token for the subject of a still valid token, as long
// as that identity still exists.
func (s *AuthService) Refresh(ctx context.Context, authHeader string) (string, error) {
	raw, err := security.BearerToken(authHeader)
	if err != nil {
		return "", err
	}

	tok, err := s.codec.Decode(raw)
	if err != nil {
		return "", domain.ErrInvalidOrExpiredToken
	}

	identity, err := s.store.FindByID(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return "", domain.ErrIdentityNotFound
		}
		return "", fmt.Errorf("refresh: %w", err)
	}

	token, err := s.codec.Issue(identity.ID, s.now(), s.tokenTTL, identity.Roles)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}

	s.log.Debug().Int64("user_id", identity.ID).Msg("token refreshed")
	return token, nil
}
