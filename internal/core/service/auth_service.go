package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

// AuthService verifies credentials and account state, then issues tokens.
type AuthService struct {
	identities   ports.IdentityRepository
	hasher       ports.PasswordHasher
	tokens       ports.TokenService
	verification ports.VerificationService
	profiles     ports.ProfileService
	log          zerolog.Logger
}

func NewAuthService(
	identities ports.IdentityRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	verification ports.VerificationService,
	profiles ports.ProfileService,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		identities:   identities,
		hasher:       hasher,
		tokens:       tokens,
		verification: verification,
		profiles:     profiles,
		log:          log,
	}
}

// Login checks, in order: input, credentials, email verification and (for
// USER accounts) the blocked flag of the profile. Nothing is written unless
// every check passes.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidInput)
	}

	identity, err := s.identities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("username", username).Msg("login attempt for unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: find identity: %w", domain.ErrInternal, err)
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		s.log.Warn().Str("username", username).Msg("invalid login attempt")
		return nil, domain.ErrInvalidCredentials
	}

	verified, err := s.verification.IsEmailVerified(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: verification status: %w", domain.ErrInternal, err)
	}
	if !verified {
		s.log.Warn().Str("username", username).Msg("email not verified")
		return nil, domain.ErrEmailNotVerified
	}

	if err := s.checkNotBlocked(ctx, identity); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", identity.ID).Str("role", string(identity.Role)).Msg("login succeeded")
	return &domain.LoginResult{Token: token, Role: identity.Role, SubjectID: identity.ID}, nil
}

// checkNotBlocked only applies to USER accounts; ADMIN and GOD have no
// marketplace profile.
func (s *AuthService) checkNotBlocked(ctx context.Context, identity *domain.Identity) error {
	if identity.Role != domain.RoleUser {
		return nil
	}

	profile, err := s.profiles.GetUserProfile(ctx, identity.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", identity.ID).Msg("checking blocked status failed")
		return fmt.Errorf("%w: validate user status: %w", domain.ErrInternal, err)
	}
	if profile != nil && profile.Blocked {
		s.log.Warn().Str("username", identity.Username).Msg("blocked user attempted to login")
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *AuthService) ValidateToken(ctx context.Context, token string) domain.TokenValidation {
	return s.tokens.Validate(ctx, token)
}

func (s *AuthService) InvalidateToken(ctx context.Context, token string) error {
	return s.tokens.Invalidate(ctx, token)
}
