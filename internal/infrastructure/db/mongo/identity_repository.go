package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kalado/authentication/internal/core/domain"
)

const (
	identityCollection = "identities"
	counterCollection  = "counters"
	identitySequence   = "identity_id"
)

type IdentityRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		coll:     db.Collection(identityCollection),
		counters: db.Collection(counterCollection),
	}
}

type mongoIdentity struct {
	ID            int64  `bson:"_id"`
	Username      string `bson:"username"`
	PasswordHash  string `bson:"password_hash"`
	Role          string `bson:"role"`
	EmailVerified bool   `bson:"email_verified"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func (m mongoIdentity) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:            m.ID,
		Username:      m.Username,
		PasswordHash:  m.PasswordHash,
		Role:          domain.Role(m.Role),
		EmailVerified: m.EmailVerified,
		CreatedAt:     unixToTime(m.CreatedAt),
		UpdatedAt:     unixToTime(m.UpdatedAt),
	}
}

// EnsureIndexes creates the unique username index.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_username"),
	})
	if err != nil {
		return fmt.Errorf("create identity indexes: %w", err)
	}
	return nil
}

// nextID allocates the next identity id from the counters collection.
func (r *IdentityRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": identitySequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate identity id: %w", err)
	}
	return counter.Seq, nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := mongoIdentity{
		ID:            id,
		Username:      identity.Username,
		PasswordHash:  identity.PasswordHash,
		Role:          string(identity.Role),
		EmailVerified: identity.EmailVerified,
		CreatedAt:     identity.CreatedAt.Unix(),
		UpdatedAt:     identity.UpdatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *IdentityRepository) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoIdentity
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateRole is a compare-and-set on the stored role. It returns
// ErrRoleConflict when the identity exists but no longer holds from.
func (r *IdentityRepository) UpdateRole(ctx context.Context, id int64, from, to domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "role": string(from)},
		bson.M{"$set": bson.M{"role": string(to), "updated_at": time.Now().UTC().Unix()}},
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count identity: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrRoleConflict
}

func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.set(ctx, id, bson.M{"password_hash": hash})
}

func (r *IdentityRepository) SetEmailVerified(ctx context.Context, id int64) error {
	return r.set(ctx, id, bson.M{"email_verified": true})
}

func (r *IdentityRepository) set(ctx context.Context, id int64, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC().Unix()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
