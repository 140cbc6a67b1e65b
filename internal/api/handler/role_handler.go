package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kalado/authentication/internal/api/metrics"
	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/core/ports"
)

type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// UpdateRole moves a user between USER and ADMIN.
//
// @Summary      Change a user's role
// @Description  Only GOD may change roles. USER and ADMIN are interchangeable, GOD is fixed.
// @Tags         roles
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int                true  "Target user id"
// @Param        body  body  updateRoleRequest  true  "New role"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/users/{id}/role [put]
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	requesterID, _, err := ctxSubject(c)
	if err != nil {
		return err
	}

	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || targetID <= 0 {
		return invalidInput("id must be a positive integer")
	}

	var req updateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return invalidInput("unknown role " + strconv.Quote(req.Role))
	}

	if err := h.roles.UpdateUserRole(c.Request().Context(), targetID, role, requesterID); err != nil {
		metrics.RoleChangesTotal.WithLabelValues(string(role), roleResult(err)).Inc()
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues(string(role), "success").Inc()
	return c.NoContent(http.StatusNoContent)
}

func roleResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidRoleTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrRoleConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}
