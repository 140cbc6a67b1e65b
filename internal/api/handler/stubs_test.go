package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/api/middleware"
	"github.com/kalado/authentication/internal/core/domain"
)

type stubAuthService struct {
	loginFn      func(ctx context.Context, username, password string) (*domain.LoginResult, error)
	validateFn   func(ctx context.Context, token string) domain.TokenValidation
	invalidateFn func(ctx context.Context, token string) error
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) ValidateToken(ctx context.Context, token string) domain.TokenValidation {
	return s.validateFn(ctx, token)
}

func (s *stubAuthService) InvalidateToken(ctx context.Context, token string) error {
	return s.invalidateFn(ctx, token)
}

type stubRegistrationService struct {
	registerFn func(ctx context.Context, req domain.RegistrationRequest) (*domain.Identity, error)
}

func (s *stubRegistrationService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Identity, error) {
	return s.registerFn(ctx, req)
}

type stubRoleService struct {
	updateFn func(ctx context.Context, targetID int64, newRole domain.Role, requestingID int64) error
}

func (s *stubRoleService) UpdateUserRole(ctx context.Context, targetID int64, newRole domain.Role, requestingID int64) error {
	return s.updateFn(ctx, targetID, newRole, requestingID)
}

func (s *stubRoleService) ValidatePrivilegedRegistration(string, domain.Role) error { return nil }

type stubPasswordService struct {
	forgotFn func(ctx context.Context, username string) error
	resetFn  func(ctx context.Context, token, newPassword string) error
	changeFn func(ctx context.Context, id int64, current, next string) error
}

func (s *stubPasswordService) CreateResetToken(ctx context.Context, username string) error {
	return s.forgotFn(ctx, username)
}

func (s *stubPasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

func (s *stubPasswordService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return s.changeFn(ctx, id, current, next)
}

type stubVerificationService struct {
	verifyFn func(ctx context.Context, token string) error
}

func (s *stubVerificationService) IsEmailVerified(context.Context, *domain.Identity) (bool, error) {
	return true, nil
}

func (s *stubVerificationService) CreateVerificationToken(context.Context, *domain.Identity) error {
	return nil
}

func (s *stubVerificationService) VerifyEmail(ctx context.Context, token string) error {
	return s.verifyFn(ctx, token)
}

// newContext builds an echo context with the validator registered, as the
// router does.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authenticate mimics the Auth middleware.
func authenticate(c echo.Context, id int64, role domain.Role, token string) {
	c.Set(middleware.ContextUserID, id)
	c.Set(middleware.ContextRole, role)
	c.Set(middleware.ContextToken, token)
}
