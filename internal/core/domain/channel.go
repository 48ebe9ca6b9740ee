package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const minChannelNameLength = 5

// Channel groups users who receive the same announcements and tasks.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MemberIDs   []int64   `json:"member_ids"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidateChannelName rejects names shorter than five characters.
func ValidateChannelName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minChannelNameLength {
		return ErrInvalidChannelName
	}
	return nil
}

// HasMember reports whether userID belongs to the channel or created it.
func (c *Channel) HasMember(userID int64) bool {
	return c.CreatorID == userID || slices.Contains(c.MemberIDs, userID)
}
