package ports

import (
	"context"

	"github.com/kalado/authentication/internal/core/domain"
)

// IdentityRepository is the durable credential store.
// Lookups return domain.ErrUserNotFound when no identity matches.
type IdentityRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
	// Create assigns the identity ID. Returns domain.ErrUserExists on a
	// duplicate username.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	// UpdateRole sets the role only while the stored role still equals from.
	// Returns domain.ErrRoleConflict when it does not.
	UpdateRole(ctx context.Context, id int64, from, to domain.Role) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SetEmailVerified(ctx context.Context, id int64) error
}

// ResetTokenRepository stores password reset tokens, at most one per identity.
type ResetTokenRepository interface {
	// Replace atomically removes any token held by the identity and stores t.
	Replace(ctx context.Context, t *domain.PasswordResetToken) error
	// Consume atomically removes and returns the token, expired or not. Only
	// one of several concurrent callers gets it; the rest see
	// domain.ErrTokenNotFound.
	Consume(ctx context.Context, token string) (*domain.PasswordResetToken, error)
}

// VerificationTokenRepository stores email verification tokens, at most one
// per identity.
type VerificationTokenRepository interface {
	Replace(ctx context.Context, t *domain.VerificationToken) error
	// Consume has the same single-winner semantics as ResetTokenRepository.Consume.
	Consume(ctx context.Context, token string) (*domain.VerificationToken, error)
}
