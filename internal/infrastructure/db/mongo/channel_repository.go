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

const collectionChannels = "channels"

type ChannelRepository struct {
	col *mongo.Collection
}

var _ ports.ChannelRepository = (*ChannelRepository)(nil)

func NewChannelRepository(db *mongo.Database) *ChannelRepository {
	return &ChannelRepository{col: db.Collection(collectionChannels)}
}

type channelDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	MemberIDs   []int64   `bson:"member_ids"`
	CreatorID   int64     `bson:"creator_id"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d channelDocument) toDomain() *domain.Channel {
	return &domain.Channel{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		MemberIDs:   d.MemberIDs,
		CreatorID:   d.CreatorID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (r *ChannelRepository) Create(ctx context.Context, ch *domain.Channel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	members := ch.MemberIDs
	if members == nil {
		members = []int64{}
	}
	_, err := r.col.InsertOne(ctx, channelDocument{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		MemberIDs:   members,
		CreatorID:   ch.CreatorID,
		CreatedAt:   ch.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (r *ChannelRepository) FindByID(ctx context.Context, id string) (*domain.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc channelDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChannelNotFound
		}
		return nil, fmt.Errorf("find channel: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByMember returns channels userID created or belongs to, newest first.
func (r *ChannelRepository) FindByMember(ctx context.Context, userID int64) ([]*domain.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"member_ids": userID},
		bson.M{"creator_id": userID},
	}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find channels: %w", err)
	}
	defer cur.Close(ctx)

	var docs []channelDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	out := make([]*domain.Channel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ChannelRepository) Update(ctx context.Context, ch *domain.Channel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": ch.ID}, bson.M{"$set": bson.M{
		"name":        ch.Name,
		"description": ch.Description,
	}})
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

// EnsureIndexes creates the membership lookup indexes.
func (r *ChannelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "member_ids", Value: 1}}},
		{Keys: bson.D{{Key: "creator_id", Value: 1}}},
	})
	return err
}
