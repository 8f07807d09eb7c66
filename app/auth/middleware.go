package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/database"
)

const (
	// Context keys set by Middleware for downstream handlers
	ContextDID     = "did"
	ContextSession = "session"
)

// Middleware authenticates requests with a Bearer session token and stores
// the DID and session on the gin context.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Provide a session token in the Authorization: Bearer header",
			})
			c.Abort()
			return
		}

		claims, session, err := service.VerifySession(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid session",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(ContextDID, claims.DID)
		c.Set(ContextSession, session)
		c.Next()
	}
}

// OptionalMiddleware authenticates when a token is present but lets
// anonymous requests through. Used by the feedback endpoint.
func OptionalMiddleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if claims, session, err := service.VerifySession(token); err == nil {
				c.Set(ContextDID, claims.DID)
				c.Set(ContextSession, session)
			}
		}
		c.Next()
	}
}

// AdminMiddleware gates operator endpoints behind a static access key.
func AdminMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-Admin-Key")
		if providedKey == "" || providedKey != adminKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid admin key",
				"message": "Provide a valid key in the X-Admin-Key header",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFromContext returns the authenticated session, or nil for
// anonymous requests.
func SessionFromContext(c *gin.Context) *database.Session {
	value, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	session, ok := value.(*database.Session)
	if !ok {
		return nil
	}
	return session
}

// DIDFromContext returns the authenticated DID, or empty for anonymous
// requests.
func DIDFromContext(c *gin.Context) string {
	return c.GetString(ContextDID)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
