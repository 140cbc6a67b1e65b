package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

const defaultPhoneRegion = "US"

// RegistrationService creates identities. Creating the identity is the commit
// point; profile creation and the verification mail are best-effort hooks.
type RegistrationService struct {
	identities   ports.IdentityRepository
	hasher       ports.PasswordHasher
	roles        ports.RoleService
	profiles     ports.ProfileService
	verification ports.VerificationService
	phoneRegion  string
	log          zerolog.Logger
	now          func() time.Time
}

func NewRegistrationService(
	identities ports.IdentityRepository,
	hasher ports.PasswordHasher,
	roles ports.RoleService,
	profiles ports.ProfileService,
	verification ports.VerificationService,
	phoneRegion string,
	log zerolog.Logger,
) *RegistrationService {
	if phoneRegion == "" {
		phoneRegion = defaultPhoneRegion
	}
	return &RegistrationService{
		identities:   identities,
		hasher:       hasher,
		roles:        roles,
		profiles:     profiles,
		verification: verification,
		phoneRegion:  strings.ToUpper(phoneRegion),
		log:          log,
		now:          time.Now,
	}
}

func (s *RegistrationService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Identity, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	if err := s.roles.ValidatePrivilegedRegistration(req.Email, req.Role); err != nil {
		return nil, err
	}

	_, err := s.identities.FindByUsername(ctx, req.Email)
	switch {
	case err == nil:
		s.log.Info().Str("username", req.Email).Msg("user already exists")
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("%w: find identity: %w", domain.ErrInternal, err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}

	now := s.now().UTC()
	created, err := s.identities.Create(ctx, &domain.Identity{
		Username:     req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create identity: %w", domain.ErrInternal, err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", string(created.Role)).Msg("identity registered")

	s.createProfile(ctx, created, req)
	if err := s.verification.CreateVerificationToken(ctx, created); err != nil {
		s.log.Error().Err(err).Int64("user_id", created.ID).Msg("creating verification token failed")
	}

	return created, nil
}

func validateRegistration(req domain.RegistrationRequest) error {
	required := []struct {
		name, value string
	}{
		{"email", req.Email},
		{"password", req.Password},
		{"first name", req.FirstName},
		{"last name", req.LastName},
		{"phone number", req.PhoneNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s cannot be empty", domain.ErrInvalidInput, f.name)
		}
	}
	if req.Role == "" {
		return fmt.Errorf("%w: role cannot be empty", domain.ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, req.Role)
	}
	return nil
}

func (s *RegistrationService) createProfile(ctx context.Context, identity *domain.Identity, req domain.RegistrationRequest) {
	phone := s.normalizePhone(req.PhoneNumber)

	var err error
	switch identity.Role {
	case domain.RoleGod, domain.RoleAdmin:
		err = s.profiles.CreateAdmin(ctx, domain.AdminProfile{
			ID:          identity.ID,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: phone,
		})
	default:
		err = s.profiles.CreateUser(ctx, domain.UserProfile{
			ID:          identity.ID,
			Username:    identity.Username,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: phone,
		})
	}
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", identity.ID).Msg("profile creation failed")
	}
}

// normalizePhone returns the E.164 form when the number parses, and the raw
// input otherwise.
func (s *RegistrationService) normalizePhone(raw string) string {
	num, err := phonenumbers.Parse(raw, s.phoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
