package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/api/metrics"
	"github.com/kalado/authentication/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextToken  = "token"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. ok is false when the header is absent or malformed.
func BearerToken(c echo.Context) (token string, ok bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token = strings.TrimSpace(parts[1])
	return token, token != ""
}

// Auth validates the bearer token against the session store and injects the
// subject id and its current role into the context.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			token, ok := BearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			v := auth.ValidateToken(c.Request().Context(), token)
			if !v.Valid {
				metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()

			c.Set(ContextUserID, v.SubjectID)
			c.Set(ContextRole, v.Role)
			c.Set(ContextToken, token)

			return next(c)
		}
	}
}
