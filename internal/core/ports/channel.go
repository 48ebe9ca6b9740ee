package ports

import (
	"context"

	"github.com/hits/carschool/internal/core/domain"
)

// ChannelRepository defines persistence operations for channels.
type ChannelRepository interface {
	Create(ctx context.Context, ch *domain.Channel) error
	FindByID(ctx context.Context, id string) (*domain.Channel, error)
	// FindByMember returns channels the user belongs to or created.
	FindByMember(ctx context.Context, userID int64) ([]*domain.Channel, error)
	Update(ctx context.Context, ch *domain.Channel) error
	Delete(ctx context.Context, id string) error
}

// CreateChannelInput carries the data of a new channel.
type CreateChannelInput struct {
	Name        string
	Description string
	MemberIDs   []int64
}

// UpdateChannelInput carries optional channel changes; nil fields are kept.
type UpdateChannelInput struct {
	Name        *string
	Description *string
}

// ChannelService defines use-case operations for channels.
type ChannelService interface {
	CreateChannel(ctx context.Context, creatorID int64, input CreateChannelInput) (*domain.Channel, error)
	GetChannel(ctx context.Context, id string) (*domain.Channel, error)
	ListUserChannels(ctx context.Context, userID int64) ([]*domain.Channel, error)
	UpdateChannel(ctx context.Context, id string, input UpdateChannelInput) (*domain.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
}
