package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
)

const postIdempotencyScope = "post"

// PostService implements publishing of announcements and tasks.
type PostService struct {
	repo        ports.PostRepository
	channels    ports.ChannelRepository
	idempotency ports.IdempotencyStore
	now         func() time.Time
	log         zerolog.Logger
}

// NewPostService returns a PostService. idempotency may be nil, in which case
// Idempotency-Key values are ignored.
func NewPostService(repo ports.PostRepository, channels ports.ChannelRepository, idempotency ports.IdempotencyStore, log zerolog.Logger) *PostService {
	return &PostService{repo: repo, channels: channels, idempotency: idempotency, now: time.Now, log: log}
}

// CreatePost publishes a post in an existing channel. When the same author
// replays an Idempotency-Key, the post created the first time is returned;
// a replay racing the first request fails with domain.ErrRequestInProgress.
func (s *PostService) CreatePost(ctx context.Context, authorID int64, in ports.CreatePostInput) (*ports.PostResult, error) {
	postType, err := domain.ParsePostType(in.Type)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(in.ChannelID); err != nil {
		return nil, domain.ErrChannelNotFound
	}
	if _, err := s.channels.FindByID(ctx, in.ChannelID); err != nil {
		return nil, err
	}

	scope := postIdempotencyScope + ":" + strconv.FormatInt(authorID, 10)
	reserved, existing, err := s.reserve(ctx, scope, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ports.PostResult{Post: existing, AlreadyExisted: true}, nil
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		Label:     strings.TrimSpace(in.Label),
		Text:      in.Text,
		Type:      postType,
		Deadline:  in.Deadline,
		ChannelID: in.ChannelID,
		AuthorID:  authorID,
		NeedMark:  postType == domain.PostTask,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, post); err != nil {
		s.log.Error().Err(err).Msg("failed to create post")
		if reserved {
			if rerr := s.idempotency.Release(ctx, scope, in.IdempotencyKey); rerr != nil {
				s.log.Warn().Err(rerr).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if reserved {
		if err := s.idempotency.Complete(ctx, scope, in.IdempotencyKey, post.ID); err != nil {
			s.log.Warn().Err(err).Str("post_id", post.ID).Msg("failed to store idempotency key")
		}
	}

	s.log.Info().Str("post_id", post.ID).Str("channel_id", post.ChannelID).Int64("author_id", authorID).Msg("post created")
	return &ports.PostResult{Post: post}, nil
}

// reserve claims key for this request. It reports reserved=true when the
// caller owns the key, or returns the post an earlier request stored under it.
// Without a key or a store the request proceeds unguarded.
func (s *PostService) reserve(ctx context.Context, scope, key string) (bool, *domain.Post, error) {
	if key == "" || s.idempotency == nil {
		return false, nil, nil
	}
	postID, acquired, err := s.idempotency.Reserve(ctx, scope, key)
	switch {
	case errors.Is(err, domain.ErrRequestInProgress):
		return false, nil, err
	case err != nil:
		s.log.Warn().Err(err).Msg("idempotency reserve failed, creating anyway")
		return false, nil, nil
	case acquired:
		return true, nil, nil
	}

	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return false, nil, fmt.Errorf("replay post %s: %w", postID, err)
	}
	s.log.Info().Str("idempotency_key", key).Str("post_id", postID).Msg("idempotent replay")
	return false, post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrPostNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *PostService) ListChannelPosts(ctx context.Context, channelID string) ([]*domain.Post, error) {
	if _, err := uuid.Parse(channelID); err != nil {
		return nil, domain.ErrChannelNotFound
	}
	return s.repo.FindByChannel(ctx, channelID)
}

// ListUserTasks returns the TASK posts userID published in channelID.
func (s *PostService) ListUserTasks(ctx context.Context, userID int64, channelID string) ([]*domain.Post, error) {
	if _, err := uuid.Parse(channelID); err != nil {
		return nil, domain.ErrChannelNotFound
	}
	return s.repo.FindTasks(ctx, channelID, userID)
}

// DeletePost removes a post. Only its author or a manager may delete it.
func (s *PostService) DeletePost(ctx context.Context, callerID int64, callerRoles domain.RoleSet, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID && !callerRoles.Has(domain.RoleManager) {
		return fmt.Errorf("delete post %s: %w", id, domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("post_id", id).Int64("caller_id", callerID).Msg("post deleted")
	return nil
}
