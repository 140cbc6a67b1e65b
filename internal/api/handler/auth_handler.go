package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/api/metrics"
	"github.com/kalado/authentication/internal/api/middleware"
	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

type AuthHandler struct {
	auth         ports.AuthService
	registration ports.RegistrationService
}

func NewAuthHandler(auth ports.AuthService, registration ports.RegistrationService) *AuthHandler {
	return &AuthHandler{auth: auth, registration: registration}
}

// Register creates a new identity.
//
// @Summary      Register a new user
// @Description  ADMIN and GOD registrations require an allowlisted email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("unknown", "invalid_input").Inc()
		return err
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		role = domain.Role(req.Role)
	}

	identity, err := h.registration.Register(c.Request().Context(), domain.RegistrationRequest{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(string(role), registrationResult(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(string(role), "success").Inc()

	return c.JSON(http.StatusCreated, registerResponse{
		ID:        identity.ID,
		Username:  identity.Username,
		Role:      identity.Role,
		CreatedAt: identity.CreatedAt,
	})
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_input").Inc()
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, Role: res.Role, UserID: res.SubjectID})
}

// Validate reports whether the bearer token is live. It never answers 401.
//
// @Summary      Validate a token
// @Tags         auth
// @Produce      json
// @Param        Authorization  header    string  true  "Bearer token"
// @Success      200            {object}  validateResponse
// @Router       /auth/validate [get]
func (h *AuthHandler) Validate(c echo.Context) error {
	token, ok := middleware.BearerToken(c)
	if !ok {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusOK, validateResponse{Valid: false})
	}

	v := h.auth.ValidateToken(c.Request().Context(), token)
	if !v.Valid {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusOK, validateResponse{Valid: false})
	}
	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return c.JSON(http.StatusOK, validateResponse{Valid: true, UserID: v.SubjectID, Role: v.Role})
}

// Logout revokes the presented token.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := c.Get(middleware.ContextToken).(string)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if err := h.auth.InvalidateToken(c.Request().Context(), token); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, domain.ErrUnauthorized):
		return "blocked"
	default:
		return "error"
	}
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUserExists):
		return "exists"
	default:
		return "error"
	}
}
