package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/revom/revom_backend/models"
)

// RoleController serves the selectable roles and their display copy
type RoleController struct{}

// NewRoleController creates a new role controller
func NewRoleController() *RoleController {
	return &RoleController{}
}

type roleEntry struct {
	Role        models.UserRole `json:"role"`
	Description string          `json:"description"`
}

// ListRoles handles GET /api/roles
func (rc *RoleController) ListRoles(c echo.Context) error {
	roles := make([]roleEntry, 0, len(models.ValidRoles))
	for _, role := range models.ValidRoles {
		roles = append(roles, roleEntry{Role: role, Description: role.Description()})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Roles retrieved successfully",
		Data:    roles,
	})
}
