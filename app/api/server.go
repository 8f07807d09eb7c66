package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	if cfg.Get().Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

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
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	c := cfg.Get()

	// Public endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/s/:token", handler.ResolveShare)

	api := r.Group("/api")

	// Session lifecycle
	api.POST("/auth/login", handler.Login)

	// Public reads
	api.GET("/media", handler.SearchMedia)
	api.GET("/media/:id", handler.GetMedia)
	api.GET("/media/:id/reviews", handler.ListMediaReviews)
	api.GET("/feed", handler.GetFeed)

	// Feedback accepts anonymous submissions but records the DID when present
	api.POST("/feedback", auth.OptionalMiddleware(handler.authService), handler.CreateFeedback)

	authed := api.Group("")
	authed.Use(auth.Middleware(handler.authService))
	{
		authed.POST("/auth/refresh", handler.RefreshSession)
		authed.POST("/auth/logout", handler.Logout)
		authed.GET("/auth/me", handler.GetMe)

		authed.GET("/collections", handler.ListCollections)
		authed.POST("/collections", handler.CreateCollection)
		authed.GET("/collections/:rkey", handler.GetCollection)
		authed.PUT("/collections/:rkey", handler.UpdateCollection)
		authed.DELETE("/collections/:rkey", handler.DeleteCollection)
		authed.GET("/collections/:rkey/items", handler.ListCollectionItems)
		authed.POST("/collections/:rkey/items", handler.AddCollectionItem)
		authed.DELETE("/collections/:rkey/items/:itemRkey", handler.RemoveCollectionItem)

		authed.POST("/media", handler.UpsertMedia)
		authed.GET("/media/:id/tags", handler.ListMediaTags)
		authed.POST("/media/:id/tags", handler.AddMediaTag)
		authed.DELETE("/media/:id/tags/:tagId", handler.RemoveMediaTag)

		authed.POST("/reviews", handler.CreateReview)
		authed.PUT("/reviews/:rkey", handler.UpdateReview)
		authed.DELETE("/reviews/:rkey", handler.DeleteReview)

		authed.POST("/comments", handler.CreateComment)
		authed.DELETE("/comments/:rkey", handler.DeleteComment)

		authed.PUT("/reactions", handler.CreateReaction)
		authed.DELETE("/reactions", handler.DeleteReaction)

		authed.GET("/tags", handler.ListTags)
		authed.POST("/tags", handler.CreateTag)
		authed.DELETE("/tags/:id", handler.DeleteTag)
		authed.GET("/tags/:slug/media", handler.ListTagMedia)

		authed.GET("/shares", handler.ListShares)
		authed.POST("/shares", handler.CreateShare)
		authed.DELETE("/shares/:id", handler.DeleteShare)

		authed.GET("/feed/me", handler.GetOwnFeed)
	}

	// Operator endpoints (conditionally enabled with authentication)
	if c.AdminKey != "" {
		admin := r.Group("/admin")
		admin.Use(auth.AdminMiddleware(c.AdminKey))
		{
			admin.GET("/feedback", handler.ListFeedback)
		}
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Medialog",
			"version":     cfg.Get().Version,
			"description": "Media tracking backend over ATProto user repositories",
			"endpoints": map[string]string{
				"login":  "/api/auth/login (POST)",
				"media":  "/api/media",
				"feed":   "/api/feed",
				"share":  "/s/<token>",
				"health": "/health",
				"stats":  "/stats",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
