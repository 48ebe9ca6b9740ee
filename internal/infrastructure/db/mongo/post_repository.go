package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
)

const collectionPosts = "posts"

type PostRepository struct {
	col *mongo.Collection
}

var _ ports.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection(collectionPosts)}
}

type postDocument struct {
	ID        string     `bson:"_id"`
	Label     string     `bson:"label"`
	Text      string     `bson:"text"`
	Type      string     `bson:"type"`
	Deadline  *time.Time `bson:"deadline,omitempty"`
	ChannelID string     `bson:"channel_id"`
	AuthorID  int64      `bson:"author_id"`
	NeedMark  bool       `bson:"need_mark"`
	CreatedAt time.Time  `bson:"created_at"`
}

func (d postDocument) toDomain() *domain.Post {
	p := &domain.Post{
		ID:        d.ID,
		Label:     d.Label,
		Text:      d.Text,
		Type:      domain.PostType(d.Type),
		ChannelID: d.ChannelID,
		AuthorID:  d.AuthorID,
		NeedMark:  d.NeedMark,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.Deadline != nil {
		deadline := d.Deadline.UTC()
		p.Deadline = &deadline
	}
	return p
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, postDocument{
		ID:        p.ID,
		Label:     p.Label,
		Text:      p.Text,
		Type:      string(p.Type),
		Deadline:  p.Deadline,
		ChannelID: p.ChannelID,
		AuthorID:  p.AuthorID,
		NeedMark:  p.NeedMark,
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc postDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PostRepository) FindByChannel(ctx context.Context, channelID string) ([]*domain.Post, error) {
	return r.find(ctx, bson.M{"channel_id": channelID})
}

func (r *PostRepository) FindTasks(ctx context.Context, channelID string, authorID int64) ([]*domain.Post, error) {
	return r.find(ctx, bson.M{
		"channel_id": channelID,
		"author_id":  authorID,
		"type":       string(domain.PostTask),
	})
}

func (r *PostRepository) find(ctx context.Context, filter bson.M) ([]*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	out := make([]*domain.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// EnsureIndexes creates indexes on the posts collection.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "author_id", Value: 1}, {Key: "type", Value: 1}}},
	})
	return err
}
