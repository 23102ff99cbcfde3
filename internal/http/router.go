package http

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jtomfarrar/argopy/internal/fetcher"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(registry *fetcher.Registry) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable.
	// Default to allow all origins if not specified.
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(registry)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/sources", handler.GetSources)

	// Measurement data.
	data := v1.Group("/data")
	data.GET("/float", handler.GetDataFloat)
	data.GET("/profile", handler.GetDataProfile)
	data.GET("/region", handler.GetDataRegion)

	// Index metadata.
	index := v1.Group("/index")
	index.GET("/float", handler.GetIndexFloat)
	index.GET("/region", handler.GetIndexRegion)
	index.GET("/plot", handler.GetIndexPlot)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
