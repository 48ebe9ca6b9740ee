package handler

import (
	"time"

	"github.com/hits/carschool/internal/core/domain"
)

type createChannelRequest struct {
	Name        string  `json:"name"        validate:"required,min=5,max=100"`
	Description string  `json:"description" validate:"max=1000"`
	MemberIDs   []int64 `json:"member_ids"`
}

type updateChannelRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=5,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type channelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberIDs   []int64   `json:"member_ids"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toChannelResponse(ch *domain.Channel) channelResponse {
	members := ch.MemberIDs
	if members == nil {
		members = []int64{}
	}
	return channelResponse{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		MemberIDs:   members,
		CreatorID:   ch.CreatorID,
		CreatedAt:   ch.CreatedAt,
	}
}

func toChannelResponses(channels []*domain.Channel) []channelResponse {
	out := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, toChannelResponse(ch))
	}
	return out
}
