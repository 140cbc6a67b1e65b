package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/core/domain"
)

// RBAC lets through callers whose role is at least minimum in the
// USER < ADMIN < GOD order. It must run after Auth.
func RBAC(minimum domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(domain.Role)
			if !role.AtLeast(minimum) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
