package handler

import (
	"time"

	"github.com/kalado/authentication/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Password    string `json:"password"    validate:"required"`
	FirstName   string `json:"firstName"   validate:"required"`
	LastName    string `json:"lastName"    validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Role        string `json:"role"        validate:"required"`
}

type registerResponse struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token  string      `json:"token"`
	Role   domain.Role `json:"role"`
	UserID int64       `json:"user_id"`
}

type validateResponse struct {
	Valid  bool        `json:"valid"`
	UserID int64       `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}
