package domain

import (
	"fmt"
	"strings"
	"time"
)

// PostType distinguishes plain announcements from tasks that are graded.
type PostType string

const (
	PostAnnouncement PostType = "ANNOUNCEMENT"
	PostTask         PostType = "TASK"
)

// ParsePostType resolves a case-insensitive post type.
func ParsePostType(s string) (PostType, error) {
	switch t := PostType(strings.ToUpper(strings.TrimSpace(s))); t {
	case PostAnnouncement, PostTask:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPostType, s)
	}
}

// Post is a message published in a channel.
type Post struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Text      string     `json:"text"`
	Type      PostType   `json:"type"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	ChannelID string     `json:"channel_id"`
	AuthorID  int64      `json:"author_id"`
	NeedMark  bool       `json:"need_mark"`
	CreatedAt time.Time  `json:"created_at"`
}
