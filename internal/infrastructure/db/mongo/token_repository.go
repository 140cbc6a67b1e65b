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
	resetTokenCollection        = "password_reset_tokens"
	verificationTokenCollection = "verification_tokens"
)

// mongoToken is the stored shape shared by reset and verification tokens.
// Keying by identity id keeps at most one token per identity and kind.
type mongoToken struct {
	IdentityID int64     `bson:"_id"`
	Token      string    `bson:"token"`
	ExpiresAt  time.Time `bson:"expires_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

type tokenCollection struct {
	coll *mongo.Collection
}

func (t tokenCollection) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Expired documents are also dropped by the TTL monitor. Reads still check
	// ExpiresAt because the monitor runs only once a minute.
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}
	if _, err := t.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", t.coll.Name(), err)
	}
	return nil
}

// replace swaps the identity's token for doc in a single upsert.
func (t tokenCollection) replace(ctx context.Context, doc mongoToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := t.coll.ReplaceOne(ctx,
		bson.M{"_id": doc.IdentityID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// consume removes the token document and returns it. FindOneAndDelete is a
// single-document atomic operation, so of two concurrent callers only one
// gets the document back.
func (t tokenCollection) consume(ctx context.Context, token string) (*mongoToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoToken
	if err := t.coll.FindOneAndDelete(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}
	return &doc, nil
}

// ResetTokenRepository stores password reset tokens.
type ResetTokenRepository struct {
	tokens tokenCollection
}

func NewResetTokenRepository(db *mongo.Database) *ResetTokenRepository {
	return &ResetTokenRepository{tokens: tokenCollection{coll: db.Collection(resetTokenCollection)}}
}

func (r *ResetTokenRepository) EnsureIndexes(ctx context.Context) error {
	return r.tokens.ensureIndexes(ctx)
}

func (r *ResetTokenRepository) Replace(ctx context.Context, t *domain.PasswordResetToken) error {
	return r.tokens.replace(ctx, mongoToken{
		Token:      t.Token,
		IdentityID: t.IdentityID,
		ExpiresAt:  t.ExpiresAt.UTC(),
		CreatedAt:  t.CreatedAt.UTC(),
	})
}

func (r *ResetTokenRepository) Consume(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	doc, err := r.tokens.consume(ctx, token)
	if err != nil {
		return nil, err
	}
	return &domain.PasswordResetToken{
		Token:      doc.Token,
		IdentityID: doc.IdentityID,
		ExpiresAt:  doc.ExpiresAt.UTC(),
		CreatedAt:  doc.CreatedAt.UTC(),
	}, nil
}

// VerificationTokenRepository stores email verification tokens.
type VerificationTokenRepository struct {
	tokens tokenCollection
}

func NewVerificationTokenRepository(db *mongo.Database) *VerificationTokenRepository {
	return &VerificationTokenRepository{tokens: tokenCollection{coll: db.Collection(verificationTokenCollection)}}
}

func (r *VerificationTokenRepository) EnsureIndexes(ctx context.Context) error {
	return r.tokens.ensureIndexes(ctx)
}

func (r *VerificationTokenRepository) Replace(ctx context.Context, t *domain.VerificationToken) error {
	return r.tokens.replace(ctx, mongoToken{
		Token:      t.Token,
		IdentityID: t.IdentityID,
		ExpiresAt:  t.ExpiresAt.UTC(),
		CreatedAt:  t.CreatedAt.UTC(),
	})
}

func (r *VerificationTokenRepository) Consume(ctx context.Context, token string) (*domain.VerificationToken, error) {
	doc, err := r.tokens.consume(ctx, token)
	if err != nil {
		return nil, err
	}
	return &domain.VerificationToken{
		Token:      doc.Token,
		IdentityID: doc.IdentityID,
		ExpiresAt:  doc.ExpiresAt.UTC(),
		CreatedAt:  doc.CreatedAt.UTC(),
	}, nil
}
