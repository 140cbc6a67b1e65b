package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/api/middleware"
	"github.com/kalado/authentication/internal/core/domain"
)

// ctxSubject extracts the identity injected by the Auth middleware. A missing
// value means the route was wired without Auth.
func ctxSubject(c echo.Context) (id int64, role domain.Role, err error) {
	id, _ = c.Get(middleware.ContextUserID).(int64)
	role, _ = c.Get(middleware.ContextRole).(domain.Role)
	if id == 0 || role == "" {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, role, nil
}

// bind decodes and validates the request body. Failures surface as
// ErrInvalidInput so the error handler answers 400.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidInput("invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return invalidInput(err.Error())
	}
	return nil
}
