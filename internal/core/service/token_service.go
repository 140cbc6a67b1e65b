package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// TokenService issues HS256 bearer tokens and mirrors every live token in the
// session store. A token is live only while both the signature/expiry check
// and the store lookup succeed.
type TokenService struct {
	store      ports.SessionStore
	identities ports.IdentityRepository
	secret     []byte
	ttl        time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewTokenService(store ports.SessionStore, identities ports.IdentityRepository, secret string, ttl time.Duration, log zerolog.Logger) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{
		store:      store,
		identities: identities,
		secret:     []byte(secret),
		ttl:        ttl,
		log:        log,
		now:        time.Now,
	}
}

// Issue mints a token for subjectID and registers it in the session store.
func (s *TokenService) Issue(ctx context.Context, subjectID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %w", domain.ErrInternal, err)
	}

	if err := s.store.Save(ctx, token, subjectID, s.ttl); err != nil {
		return "", fmt.Errorf("%w: save session: %w", domain.ErrInternal, err)
	}

	s.log.Debug().Int64("subject_id", subjectID).Str("jti", claims.ID).Msg("token issued")
	return token, nil
}

// Validate never returns an error: malformed, tampered, expired and revoked
// tokens all come back as an invalid result.
func (s *TokenService) Validate(ctx context.Context, token string) domain.TokenValidation {
	var invalid domain.TokenValidation
	if token == "" {
		return invalid
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		s.log.Debug().Err(err).Msg("token rejected")
		return invalid
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return invalid
	}

	stored, err := s.store.SubjectOf(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Warn().Err(err).Int64("subject_id", subjectID).Msg("session lookup failed")
		}
		return invalid
	}
	if stored != subjectID {
		s.log.Warn().Int64("subject_id", subjectID).Int64("stored_subject_id", stored).Msg("session subject mismatch")
		return invalid
	}

	identity, err := s.identities.FindByID(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Err(err).Int64("subject_id", subjectID).Msg("identity lookup failed")
		}
		return invalid
	}

	return domain.TokenValidation{Valid: true, SubjectID: identity.ID, Role: identity.Role}
}

// Invalidate revokes a single token. Unknown tokens are a no-op.
func (s *TokenService) Invalidate(ctx context.Context, token string) error {
	if err := s.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("%w: delete session: %w", domain.ErrInternal, err)
	}
	return nil
}

// InvalidateAll revokes every token of subjectID. A token issued while the
// sweep runs may survive it, so callers change the credential first.
func (s *TokenService) InvalidateAll(ctx context.Context, subjectID int64) error {
	n, err := s.store.DeleteAllForSubject(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("%w: delete sessions: %w", domain.ErrInternal, err)
	}
	s.log.Info().Int64("subject_id", subjectID).Int("revoked", n).Msg("all sessions invalidated")
	return nil
}
