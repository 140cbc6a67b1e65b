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

const defaultVerificationTokenTTL = 24 * time.Hour

// VerificationService implements email ownership checks.
type VerificationService struct {
	identities ports.IdentityRepository
	tokens     ports.VerificationTokenRepository
	notifier   ports.Notifier
	ttl        time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewVerificationService(
	identities ports.IdentityRepository,
	tokens ports.VerificationTokenRepository,
	notifier ports.Notifier,
	ttl time.Duration,
	log zerolog.Logger,
) *VerificationService {
	if ttl <= 0 {
		ttl = defaultVerificationTokenTTL
	}
	return &VerificationService{
		identities: identities,
		tokens:     tokens,
		notifier:   notifier,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
	}
}

func (s *VerificationService) IsEmailVerified(_ context.Context, identity *domain.Identity) (bool, error) {
	if identity == nil {
		return false, domain.ErrUserNotFound
	}
	return identity.EmailVerified, nil
}

// CreateVerificationToken replaces the identity's verification token and
// queues the verification mail.
func (s *VerificationService) CreateVerificationToken(ctx context.Context, identity *domain.Identity) error {
	now := s.now().UTC()
	token := &domain.VerificationToken{
		Token:      uuid.NewString(),
		IdentityID: identity.ID,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return fmt.Errorf("%w: save verification token: %w", domain.ErrInternal, err)
	}

	if err := s.notifier.VerificationRequested(ctx, identity.Username, token.Token); err != nil {
		s.log.Error().Err(err).Int64("user_id", identity.ID).Msg("queueing verification mail failed")
	}
	return nil
}

// VerifyEmail consumes a verification token and marks the identity verified.
// The token is gone once Consume returns, even when it turns out expired.
func (s *VerificationService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}

	vt, err := s.tokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("%w: consume verification token: %w", domain.ErrInternal, err)
	}

	if vt.Expired(s.now()) {
		return fmt.Errorf("%w: token has expired", domain.ErrInvalidToken)
	}

	if err := s.identities.SetEmailVerified(ctx, vt.IdentityID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: mark verified: %w", domain.ErrInternal, err)
	}

	s.log.Info().Int64("user_id", vt.IdentityID).Msg("email verified")
	return nil
}
