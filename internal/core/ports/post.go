package ports

import (
	"context"
	"time"

	"github.com/hits/carschool/internal/core/domain"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// FindByChannel returns the channel's posts, newest first.
	FindByChannel(ctx context.Context, channelID string) ([]*domain.Post, error)
	// FindTasks returns TASK posts written by authorID in channelID, newest first.
	FindTasks(ctx context.Context, channelID string, authorID int64) ([]*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore remembers the result of a request keyed by a client
// supplied Idempotency-Key.
//
// Reserve claims key atomically. Exactly one concurrent caller gets
// acquired=true and must follow up with Complete or Release. Losers get the
// value stored by Complete, or domain.ErrRequestInProgress while the winner
// has not completed yet.
type IdempotencyStore interface {
	Reserve(ctx context.Context, scope, key string) (value string, acquired bool, err error)
	Complete(ctx context.Context, scope, key, value string) error
	Release(ctx context.Context, scope, key string) error
}

// CreatePostInput carries the data of a new post.
type CreatePostInput struct {
	Label          string
	Text           string
	Type           string
	Deadline       *time.Time
	ChannelID      string
	IdempotencyKey string
}

// PostResult is returned by CreatePost.
type PostResult struct {
	Post *domain.Post
	// AlreadyExisted is true when the Idempotency-Key matched an earlier post.
	AlreadyExisted bool
}

// PostService defines use-case operations for posts.
type PostService interface {
	CreatePost(ctx context.Context, authorID int64, input CreatePostInput) (*PostResult, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListChannelPosts(ctx context.Context, channelID string) ([]*domain.Post, error)
	ListUserTasks(ctx context.Context, userID int64, channelID string) ([]*domain.Post, error)
	// DeletePost removes a post; only its author or a manager may do so.
	DeletePost(ctx context.Context, callerID int64, callerRoles domain.RoleSet, id string) error
}
