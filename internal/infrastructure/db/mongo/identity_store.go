package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
)

const (
	collectionUsers    = "users"
	collectionRoles    = "roles"
	collectionCounters = "counters"

	userSequence = "users"
)

// IdentityStore implements ports.IdentityStore on MongoDB. Users get numeric
// ids from a counters document; updates are guarded by a version field.
type IdentityStore struct {
	users    *mongo.Collection
	roles    *mongo.Collection
	counters *mongo.Collection
}

var _ ports.IdentityStore = (*IdentityStore)(nil)

func NewIdentityStore(db *mongo.Database) *IdentityStore {
	return &IdentityStore{
		users:    db.Collection(collectionUsers),
		roles:    db.Collection(collectionRoles),
		counters: db.Collection(collectionCounters),
	}
}

type identityDocument struct {
	ID           int64    `bson:"_id"`
	FirstName    string   `bson:"first_name"`
	LastName     string   `bson:"last_name"`
	Age          int      `bson:"age"`
	Phone        string   `bson:"phone"`
	Email        string   `bson:"email"`
	PasswordHash string   `bson:"password_hash"`
	Roles        []string `bson:"roles"`
	Active       bool     `bson:"is_active"`
	Version      int64    `bson:"version"`
	CreatedAt    int64    `bson:"created_at"`
	UpdatedAt    int64    `bson:"updated_at"`
}

type roleDocument struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

func toIdentityDocument(i *domain.Identity) identityDocument {
	return identityDocument{
		ID:           i.ID,
		FirstName:    i.FirstName,
		LastName:     i.LastName,
		Age:          i.Age,
		Phone:        i.Phone,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		Roles:        i.Roles.Strings(),
		Active:       i.Active,
		Version:      i.Version,
		CreatedAt:    i.CreatedAt.Unix(),
		UpdatedAt:    i.UpdatedAt.Unix(),
	}
}

// ErrCorruptIdentity is returned for a stored user whose role list holds no
// known role. Unknown names next to known ones are dropped.
var ErrCorruptIdentity = errors.New("stored user has no known role")

func (d identityDocument) toDomain() (*domain.Identity, error) {
	roles := make([]domain.RoleName, 0, len(d.Roles))
	for _, name := range d.Roles {
		if r, err := domain.ParseRoleName(name); err == nil {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("user %d with roles %v: %w", d.ID, d.Roles, ErrCorruptIdentity)
	}
	return &domain.Identity{
		ID:           d.ID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Age:          d.Age,
		Phone:        d.Phone,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Roles:        domain.NewRoleSet(roles...),
		Active:       d.Active,
		Version:      d.Version,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}, nil
}

func (s *IdentityStore) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *IdentityStore) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain()
}

func (s *IdentityStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := s.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// Search returns identities matching filter ordered by id.
func (s *IdentityStore) Search(ctx context.Context, filter ports.IdentityFilter) ([]*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.users.Find(ctx, identityFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []identityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]*domain.Identity, 0, len(docs))
	for _, d := range docs {
		identity, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	return out, nil
}

// identityFilter translates an IdentityFilter into a Mongo query. Text fields
// are matched as case-insensitive literal substrings.
func identityFilter(f ports.IdentityFilter) bson.M {
	q := bson.M{}
	if f.Name != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
		q["$or"] = bson.A{bson.M{"first_name": re}, bson.M{"last_name": re}}
	}
	if f.Email != "" {
		q["email"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Email), Options: "i"}
	}
	if f.Role != "" {
		q["roles"] = string(f.Role)
	}
	return q
}

// Save inserts a new identity or replaces an existing one if its version is
// unchanged since it was read.
func (s *IdentityStore) Save(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if identity.ID == 0 {
		return s.insert(ctx, identity)
	}

	doc := toIdentityDocument(identity)
	doc.Version = identity.Version + 1

	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": identity.ID, "version": identity.Version}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmailOrPhone
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.users.CountDocuments(ctx, bson.M{"_id": identity.ID})
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if n == 0 {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, domain.ErrVersionConflict
	}
	return doc.toDomain()
}

func (s *IdentityStore) insert(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := toIdentityDocument(identity)
	doc.ID = id
	doc.Version = 1

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmailOrPhone
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain()
}

func (s *IdentityStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return counter.Seq, nil
}

func (s *IdentityStore) Delete(ctx context.Context, identity *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": identity.ID})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (s *IdentityStore) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDocument
	if err := s.roles.FindOne(ctx, bson.M{"name": string(name)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRoleNotFound, name)
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: doc.ID.Hex(), Name: domain.RoleName(doc.Name)}, nil
}

func (s *IdentityStore) SaveRole(ctx context.Context, name domain.RoleName) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.roles.UpdateOne(ctx,
		bson.M{"name": string(name)},
		bson.M{"$setOnInsert": bson.M{"name": string(name)}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("save role: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique indexes backing duplicate detection.
func (s *IdentityStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "roles", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}

	_, err = s.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("role indexes: %w", err)
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
