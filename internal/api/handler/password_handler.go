package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/api/metrics"
	"github.com/kalado/authentication/internal/core/ports"
)

type PasswordHandler struct {
	passwords ports.PasswordService
}

func NewPasswordHandler(passwords ports.PasswordService) *PasswordHandler {
	return &PasswordHandler{passwords: passwords}
}

// Forgot starts a password reset. The answer is the same whether or not the
// account exists.
//
// @Summary      Request a password reset
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/password/forgot [post]
func (h *PasswordHandler) Forgot(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.passwords.CreateResetToken(c.Request().Context(), strings.TrimSpace(req.Email)); err != nil {
		metrics.PasswordOperationsTotal.WithLabelValues("forgot", "failure").Inc()
		return err
	}
	metrics.PasswordOperationsTotal.WithLabelValues("forgot", "success").Inc()
	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "if the account exists, a reset link has been sent",
	})
}

// Reset consumes a reset token.
//
// @Summary      Reset a password with a token
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/password/reset [post]
func (h *PasswordHandler) Reset(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.passwords.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		metrics.PasswordOperationsTotal.WithLabelValues("reset", "failure").Inc()
		return err
	}
	metrics.PasswordOperationsTotal.WithLabelValues("reset", "success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password has been reset"})
}

// Change replaces the caller's password and signs out every session.
//
// @Summary      Change password
// @Tags         password
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/password/change [post]
func (h *PasswordHandler) Change(c echo.Context) error {
	id, _, err := ctxSubject(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.passwords.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		metrics.PasswordOperationsTotal.WithLabelValues("change", "failure").Inc()
		return err
	}
	metrics.PasswordOperationsTotal.WithLabelValues("change", "success").Inc()
	return c.NoContent(http.StatusNoContent)
}
