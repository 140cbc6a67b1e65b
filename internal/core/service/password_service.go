package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

const defaultResetTokenTTL = 24 * time.Hour

// PasswordService handles forgotten-password resets and authenticated
// password changes.
type PasswordService struct {
	identities ports.IdentityRepository
	resets     ports.ResetTokenRepository
	hasher     ports.PasswordHasher
	tokens     ports.TokenService
	notifier   ports.Notifier
	ttl        time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewPasswordService(
	identities ports.IdentityRepository,
	resets ports.ResetTokenRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	notifier ports.Notifier,
	ttl time.Duration,
	log zerolog.Logger,
) *PasswordService {
	if ttl <= 0 {
		ttl = defaultResetTokenTTL
	}
	return &PasswordService{
		identities: identities,
		resets:     resets,
		hasher:     hasher,
		tokens:     tokens,
		notifier:   notifier,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
	}
}

// CreateResetToken replaces any outstanding reset token of the user and mails
// the new one. Unknown usernames succeed without effect so callers cannot
// probe for accounts.
func (s *PasswordService) CreateResetToken(ctx context.Context, username string) error {
	identity, err := s.identities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("username", username).Msg("password reset requested for unknown user")
			return nil
		}
		return fmt.Errorf("%w: find identity: %w", domain.ErrInternal, err)
	}

	now := s.now().UTC()
	token := &domain.PasswordResetToken{
		Token:      uuid.NewString(),
		IdentityID: identity.ID,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.resets.Replace(ctx, token); err != nil {
		return fmt.Errorf("%w: save reset token: %w", domain.ErrInternal, err)
	}

	if err := s.notifier.PasswordResetRequested(ctx, identity.Username, token.Token); err != nil {
		s.log.Error().Err(err).Int64("user_id", identity.ID).Msg("queueing password reset mail failed")
	}

	s.log.Info().Int64("user_id", identity.ID).Msg("password reset token created")
	return nil
}

// ResetPassword consumes a reset token. The token is removed before the new
// hash is written, so concurrent calls with one token succeed at most once.
// It does not revoke live sessions.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", domain.ErrInvalidInput)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	reset, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("%w: consume reset token: %w", domain.ErrInternal, err)
	}

	if reset.Expired(s.now()) {
		return fmt.Errorf("%w: token has expired", domain.ErrInvalidToken)
	}

	if err := s.savePasswordHash(ctx, reset.IdentityID, hash); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", reset.IdentityID).Msg("password reset")
	return nil
}

// ChangePassword verifies the current password, stores the new one and then
// revokes every session of the identity. The revocation runs after the hash
// changed so a concurrent login cannot keep using the old credential.
func (s *PasswordService) ChangePassword(ctx context.Context, identityID int64, currentPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password cannot be empty", domain.ErrInvalidInput)
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: find identity: %w", domain.ErrInternal, err)
	}

	if !s.hasher.Verify(currentPassword, identity.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrInvalidCredentials)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.savePasswordHash(ctx, identity.ID, hash); err != nil {
		return err
	}

	if err := s.tokens.InvalidateAll(ctx, identity.ID); err != nil {
		s.log.Error().Err(err).Int64("user_id", identity.ID).Msg("password changed but session revocation failed")
		return err
	}

	s.log.Info().Int64("user_id", identity.ID).Msg("password changed")
	return nil
}

func (s *PasswordService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return hash, nil
}

func (s *PasswordService) savePasswordHash(ctx context.Context, identityID int64, hash string) error {
	if err := s.identities.UpdatePasswordHash(ctx, identityID, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: update password: %w", domain.ErrInternal, err)
	}
	return nil
}
