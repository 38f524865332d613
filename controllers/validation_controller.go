package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/revom/revom_backend/models"
	"github.com/revom/revom_backend/services"
)

// ValidationController exposes the deliverability verification gateway
// over HTTP
type ValidationController struct {
	deliverability *services.DeliverabilityService
}

// NewValidationController creates a new validation controller
func NewValidationController(deliverability *services.DeliverabilityService) *ValidationController {
	return &ValidationController{
		deliverability: deliverability,
	}
}

// ValidateEmail handles POST /api/validate-email. A missing email is the
// only client error; every other outcome, including degradation of the
// third-party service, is a 200 with a verdict body.
func (vc *ValidationController) ValidateEmail(c echo.Context) error {
	var req models.ValidationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ValidationResult{
			IsValid: false,
			Message: "Email is required",
		})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, models.ValidationResult{
			IsValid: false,
			Message: "Email is required",
		})
	}

	verdict := vc.deliverability.CheckEmail(c.Request().Context(), req.Email)
	return c.JSON(http.StatusOK, verdict)
}
