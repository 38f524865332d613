package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/revom/revom_backend/config"
	"github.com/revom/revom_backend/controllers"
	"github.com/revom/revom_backend/middleware"
	"github.com/revom/revom_backend/repositories"
	"github.com/revom/revom_backend/routes"
	"github.com/revom/revom_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional; verdict caching is disabled without it)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "RevoM Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	profileRepo := repositories.NewProfileRepository(client, os.Getenv("DB_NAME"))

	// Initialize services
	deliverabilityService := services.NewDeliverabilityService(redisClient)

	// Initialize controllers
	validationController := controllers.NewValidationController(deliverabilityService)
	profileController := controllers.NewProfileController(client, profileRepo)

	// Setup routes
	routes.SetupRoutes(e, validationController, profileController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
