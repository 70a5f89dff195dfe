package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// API endpoints (conditionally enabled with authentication)
	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.GET("/sources", handler.ListSources)
			api.POST("/sources", handler.CreateSource)
			api.POST("/sources/enqueue-all", handler.EnqueueAll)
			api.POST("/sources/:id/run", handler.RunSource)
			api.POST("/sources/bulk", handler.BulkUpdateSources)
			api.POST("/sources/:id/tags", handler.AddTag)
			api.DELETE("/sources/:id/tags/:tag", handler.RemoveTag)

			api.POST("/run-all", handler.StartRunAll)
			api.GET("/run-all", handler.GetRunAllProgress)
			api.POST("/run-all/cancel", handler.CancelRunAll)

			api.POST("/scores/recalculate", handler.RecalculateScores)
			api.POST("/tasks/reset-stuck", handler.ResetStuckTasks)

			api.POST("/discovery", handler.StartDiscovery)
			api.GET("/discovery", handler.GetDiscoveryProgress)
			api.POST("/discovery/cancel", handler.CancelDiscovery)
			api.POST("/discovery/validate", handler.ValidateCandidates)
			api.POST("/discovery/add", handler.AddDiscovered)

			api.GET("/imports", handler.ListImports)
		}
		log.Printf("API endpoints enabled with authentication")
	} else {
		log.Printf("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "JobSift",
			"description": "Job posting ingestion pipeline with deduplication, policy filtering, and source quality scoring",
			"endpoints": map[string]string{
				"health": "/health",
				"stats":  "/stats",
				"api":    "/api/* (requires X-API-Key header)",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"kind":    "unauthorized",
				"details": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"kind":    "unauthorized",
				"details": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
