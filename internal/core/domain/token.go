package domain

import "time"

// TokenValidation is the outcome of checking a bearer token. Role is the
// identity's current role, not the one it had when the token was issued.
type TokenValidation struct {
	Valid     bool  `json:"valid"`
	SubjectID int64 `json:"user_id,omitempty"`
	Role      Role  `json:"role,omitempty"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	Role      Role   `json:"role"`
	SubjectID int64  `json:"user_id"`
}

// PasswordResetToken is a single-use credential for password recovery.
type PasswordResetToken struct {
	Token      string
	IdentityID int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// VerificationToken proves ownership of the email address behind an identity.
type VerificationToken struct {
	Token      string
	IdentityID int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
