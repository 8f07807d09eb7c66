package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/auth"
)

// Login exchanges a handle (or DID) and app password for an API session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		slog.Warn("Login failed", "identifier", req.Identifier, "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Login failed",
			"message": "Identifier or password rejected by the PDS",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  result.Token,
		"did":    result.DID,
		"handle": result.Handle,
	})
}

// RefreshSession rotates the PDS tokens behind the caller's session and
// returns a fresh API token.
func (h *Handler) RefreshSession(c *gin.Context) {
	session := auth.SessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), session.ID)
	if err != nil {
		slog.Warn("Session refresh failed", "did", session.DID, "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Refresh failed",
			"message": "Log in again to start a new session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  result.Token,
		"did":    result.DID,
		"handle": result.Handle,
	})
}

// Logout deletes the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	session := auth.SessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), session.ID); err != nil {
		slog.Error("Logout failed", "did", session.DID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// GetMe returns the cached profile of the authenticated user.
func (h *Handler) GetMe(c *gin.Context) {
	did := auth.DIDFromContext(c)

	user, err := h.userRepo.GetUser(did)
	if err != nil {
		slog.Error("Failed to load user", "did", did, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"did":          user.DID,
		"handle":       user.Handle,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"created_at":   user.CreatedAt,
	})
}
