package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
)

// ChannelService implements channel management.
type ChannelService struct {
	repo       ports.ChannelRepository
	identities ports.IdentityStore
	now        func() time.Time
	log        zerolog.Logger
}

func NewChannelService(repo ports.ChannelRepository, identities ports.IdentityStore, log zerolog.Logger) *ChannelService {
	return &ChannelService{repo: repo, identities: identities, now: time.Now, log: log}
}

// CreateChannel creates a channel owned by creatorID. Every member id must
// refer to an existing identity.
func (s *ChannelService) CreateChannel(ctx context.Context, creatorID int64, in ports.CreateChannelInput) (*domain.Channel, error) {
	if err := domain.ValidateChannelName(in.Name); err != nil {
		return nil, err
	}

	members := make([]int64, 0, len(in.MemberIDs))
	seen := make(map[int64]struct{}, len(in.MemberIDs))
	for _, id := range in.MemberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.identities.FindByID(ctx, id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}

	ch := &domain.Channel{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		MemberIDs:   members,
		CreatorID:   creatorID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, ch); err != nil {
		s.log.Error().Err(err).Msg("failed to create channel")
		return nil, err
	}

	s.log.Info().Str("channel_id", ch.ID).Int64("creator_id", creatorID).Int("members", len(members)).Msg("channel created")
	return ch, nil
}

func (s *ChannelService) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrChannelNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *ChannelService) ListUserChannels(ctx context.Context, userID int64) ([]*domain.Channel, error) {
	return s.repo.FindByMember(ctx, userID)
}

// UpdateChannel renames a channel and/or changes its description.
func (s *ChannelService) UpdateChannel(ctx context.Context, id string, in ports.UpdateChannelInput) (*domain.Channel, error) {
	ch, err := s.GetChannel(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := domain.ValidateChannelName(*in.Name); err != nil {
			return nil, err
		}
		ch.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		ch.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.repo.Update(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChannelService) DeleteChannel(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrChannelNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("channel_id", id).Msg("channel deleted")
	return nil
}
