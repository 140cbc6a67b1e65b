package ports

import (
	"context"

	"github.com/kalado/authentication/internal/core/domain"
)

// PasswordHasher hashes and verifies passwords with a slow, salted algorithm.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never fails on malformed hashes; it reports false instead.
	Verify(plaintext, hash string) bool
}

// TokenService mints, validates and revokes bearer tokens.
type TokenService interface {
	Issue(ctx context.Context, subjectID int64) (string, error)
	Validate(ctx context.Context, token string) domain.TokenValidation
	Invalidate(ctx context.Context, token string) error
	InvalidateAll(ctx context.Context, subjectID int64) error
}

// AuthService is the credential authenticator used by the transport layer.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.LoginResult, error)
	ValidateToken(ctx context.Context, token string) domain.TokenValidation
	InvalidateToken(ctx context.Context, token string) error
}

type RegistrationService interface {
	Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Identity, error)
}

// RoleService is the role transition state machine.
type RoleService interface {
	UpdateUserRole(ctx context.Context, targetID int64, newRole domain.Role, requestingID int64) error
	ValidatePrivilegedRegistration(email string, role domain.Role) error
}

type PasswordService interface {
	// CreateResetToken succeeds silently for unknown usernames.
	CreateResetToken(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, identityID int64, currentPassword, newPassword string) error
}

// VerificationService tracks whether an identity proved its email address.
type VerificationService interface {
	IsEmailVerified(ctx context.Context, identity *domain.Identity) (bool, error)
	CreateVerificationToken(ctx context.Context, identity *domain.Identity) error
	VerifyEmail(ctx context.Context, token string) error
}

// Allowlist gates privileged registrations. Implementations are immutable.
type Allowlist interface {
	IsAuthorizedForAdmin(email string) bool
	IsAuthorizedForGod(email string) bool
}
