package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/revom/revom_backend/models"
	"github.com/revom/revom_backend/repositories"
	"github.com/revom/revom_backend/utils"
)

// ProfileController serves the minimal profile records created at the end
// of a signup
type ProfileController struct {
	DB       *mongo.Client
	profiles *repositories.ProfileRepository
}

// NewProfileController creates a new profile controller
func NewProfileController(db *mongo.Client, profiles *repositories.ProfileRepository) *ProfileController {
	return &ProfileController{
		DB:       db,
		profiles: profiles,
	}
}

// GetProfile handles GET /api/profiles/:identity
func (pc *ProfileController) GetProfile(c echo.Context) error {
	identity := c.Param("identity")
	if identity == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Identity is required",
		})
	}

	profile, err := pc.profiles.FindByIdentity(c.Request().Context(), identity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if profile == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Profile not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    profile,
	})
}

// CreateProfile handles POST /api/profiles. Creation is idempotent per
// identity: a repeated create for the same identity succeeds without a
// duplicate record.
func (pc *ProfileController) CreateProfile(c echo.Context) error {
	var req models.CreateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "userId and role are required",
		})
	}
	if !req.Role.IsValid() {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown role",
		})
	}

	if req.Email != "" {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid email format",
			})
		}
		req.Email = email
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}
	req.Phone = phone

	profile := &models.Profile{
		UserID:    req.UserID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Phone:     req.Phone,
	}

	if err := pc.profiles.Insert(c.Request().Context(), profile); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create profile",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Profile created successfully",
		Data:    profile,
	})
}
