package ports

import (
	"context"

	"github.com/kalado/authentication/internal/core/domain"
)

// ProfileService is the marketplace user service.
type ProfileService interface {
	// GetUserProfile returns (nil, nil) when the user has no profile.
	GetUserProfile(ctx context.Context, id int64) (*domain.UserProfile, error)
	CreateUser(ctx context.Context, profile domain.UserProfile) error
	CreateAdmin(ctx context.Context, profile domain.AdminProfile) error
}

// Notifier hands transactional mail to delivery. An error only means the
// message could not be accepted; delivery itself is fire-and-forget.
type Notifier interface {
	PasswordResetRequested(ctx context.Context, email, token string) error
	VerificationRequested(ctx context.Context, email, token string) error
}
