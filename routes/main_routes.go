package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/revom/revom_backend/controllers"
	"github.com/revom/revom_backend/middleware"
)

// SetupRoutes registers the gateway's public routes
func SetupRoutes(e *echo.Echo, validationController *controllers.ValidationController, profileController *controllers.ProfileController) {
	// Deliverability verification gateway
	e.POST("/api/validate-email", validationController.ValidateEmail)
	e.OPTIONS("/api/validate-email", middleware.PreflightHandler())

	// Role picker metadata
	e.GET("/api/roles", controllers.NewRoleController().ListRoles)

	// Profile records
	if profileController != nil {
		e.GET("/api/profiles/:identity", profileController.GetProfile)
		e.POST("/api/profiles", profileController.CreateProfile)
	}
}
