package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// NewCORSConfig creates a new CORS configuration. The validate-email
// endpoint is called directly from browsers during typing, so any origin
// is allowed by default; CORS_ALLOWED_ORIGINS narrows it when set.
func NewCORSConfig() *CORSConfig {
	origins := []string{"*"}

	if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
		origins = nil
		for _, origin := range strings.Split(envOrigins, ",") {
			trimmedOrigin := strings.TrimSpace(origin)
			if trimmedOrigin != "" {
				origins = append(origins, trimmedOrigin)
			}
		}
	}

	return &CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:       86400, // 24 hours
	}
}

// GlobalCORS creates a global CORS middleware
func GlobalCORS() echo.MiddlewareFunc {
	config := NewCORSConfig()

	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: config.AllowOrigins,
		AllowMethods: config.AllowMethods,
		AllowHeaders: config.AllowHeaders,
		MaxAge:       config.MaxAge,
	})
}

// PreflightHandler answers preflight CORS requests for routes registered
// explicitly with OPTIONS
func PreflightHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Response().Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		c.Response().Header().Set("Access-Control-Max-Age", "86400")
		return c.NoContent(204)
	}
}
