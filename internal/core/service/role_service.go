package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

// RoleService performs role transitions and gates privileged registrations.
type RoleService struct {
	identities ports.IdentityRepository
	profiles   ports.ProfileService
	allowlist  ports.Allowlist
	log        zerolog.Logger
}

func NewRoleService(identities ports.IdentityRepository, profiles ports.ProfileService, allowlist ports.Allowlist, log zerolog.Logger) *RoleService {
	return &RoleService{identities: identities, profiles: profiles, allowlist: allowlist, log: log}
}

// UpdateUserRole moves targetID to newRole on behalf of requestingID. The role
// write is the commit point; admin profile provisioning runs afterwards and
// its failures never undo the change.
func (s *RoleService) UpdateUserRole(ctx context.Context, targetID int64, newRole domain.Role, requestingID int64) error {
	requester, err := s.find(ctx, requestingID, "requesting user")
	if err != nil {
		return err
	}
	target, err := s.find(ctx, targetID, "target user")
	if err != nil {
		return err
	}

	if requester.Role != domain.RoleGod {
		return fmt.Errorf("%w: only GOD can modify user roles", domain.ErrForbidden)
	}
	if target.Role == domain.RoleGod {
		return fmt.Errorf("%w: cannot modify GOD role", domain.ErrForbidden)
	}
	if !target.Role.CanTransitionTo(newRole) {
		return fmt.Errorf("%w: from %s to %s", domain.ErrInvalidRoleTransition, target.Role, newRole)
	}

	if err := s.identities.UpdateRole(ctx, target.ID, target.Role, newRole); err != nil {
		if errors.Is(err, domain.ErrRoleConflict) || errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: update role: %w", domain.ErrInternal, err)
	}

	s.log.Info().
		Int64("user_id", target.ID).
		Str("from", string(target.Role)).
		Str("to", string(newRole)).
		Int64("requested_by", requester.ID).
		Msg("role updated")

	if newRole == domain.RoleAdmin {
		s.promoteToAdmin(ctx, target.ID)
	}
	return nil
}

func (s *RoleService) find(ctx context.Context, id int64, who string) (*domain.Identity, error) {
	identity, err := s.identities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, who)
		}
		return nil, fmt.Errorf("%w: find %s: %w", domain.ErrInternal, who, err)
	}
	return identity, nil
}

func (s *RoleService) promoteToAdmin(ctx context.Context, userID int64) {
	profile, err := s.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("fetching profile for admin provisioning failed")
		return
	}
	if profile == nil {
		s.log.Warn().Int64("user_id", userID).Msg("no user profile, admin profile not provisioned")
		return
	}

	err = s.profiles.CreateAdmin(ctx, domain.AdminProfile{
		ID:          userID,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		PhoneNumber: profile.PhoneNumber,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("admin profile provisioning failed")
		return
	}
	s.log.Info().Int64("user_id", userID).Msg("admin profile created")
}

// ValidatePrivilegedRegistration is a no-op for USER registrations.
func (s *RoleService) ValidatePrivilegedRegistration(email string, role domain.Role) error {
	switch role {
	case domain.RoleGod:
		if !s.allowlist.IsAuthorizedForGod(email) {
			s.log.Warn().Str("email", email).Msg("unauthorized attempt to register as GOD")
			return fmt.Errorf("%w: GOD registration is restricted to authorized emails", domain.ErrForbidden)
		}
	case domain.RoleAdmin:
		if !s.allowlist.IsAuthorizedForAdmin(email) {
			s.log.Warn().Str("email", email).Msg("unauthorized attempt to register as admin")
			return fmt.Errorf("%w: admin registration is restricted to authorized emails", domain.ErrForbidden)
		}
	}
	return nil
}
