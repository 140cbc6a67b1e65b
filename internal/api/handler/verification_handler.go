package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/core/ports"
)

type VerificationHandler struct {
	verification ports.VerificationService
}

func NewVerificationHandler(verification ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// Verify confirms an email address from the link in the verification mail.
//
// @Summary      Verify email address
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Router       /auth/verify [get]
func (h *VerificationHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return invalidInput("token is required")
	}
	if err := h.verification.VerifyEmail(c.Request().Context(), token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}
