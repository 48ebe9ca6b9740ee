package handler

import (
	"time"

	"github.com/hits/carschool/internal/core/domain"
)

type createPostRequest struct {
	Label     string     `json:"label"      validate:"required,max=200"`
	Text      string     `json:"text"       validate:"max=10000"`
	Type      string     `json:"type"       validate:"required,oneof=ANNOUNCEMENT TASK announcement task"`
	Deadline  *time.Time `json:"deadline"`
	ChannelID string     `json:"channel_id" validate:"required,uuid"`
}

type postResponse struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Text      string     `json:"text"`
	Type      string     `json:"type"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	ChannelID string     `json:"channel_id"`
	AuthorID  int64      `json:"author_id"`
	NeedMark  bool       `json:"need_mark"`
	CreatedAt time.Time  `json:"created_at"`
}

func toPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Label:     p.Label,
		Text:      p.Text,
		Type:      string(p.Type),
		Deadline:  p.Deadline,
		ChannelID: p.ChannelID,
		AuthorID:  p.AuthorID,
		NeedMark:  p.NeedMark,
		CreatedAt: p.CreatedAt,
	}
}

func toPostResponses(posts []*domain.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}
