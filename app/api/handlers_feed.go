package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/database"
)

// GetFeed returns recent activity across all users, newest first. The
// `before` query parameter pages backwards through time.
func (h *Handler) GetFeed(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50, 1, 100)

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid before parameter",
				"message": "Use an RFC 3339 timestamp",
			})
			return
		}
		before = &t
	}

	events, err := h.feedRepo.ListRecent(limit, before)
	if err != nil {
		slog.Error("Failed to list feed events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": eventResponses(events)})
}

// GetOwnFeed returns the authenticated user's own activity.
func (h *Handler) GetOwnFeed(c *gin.Context) {
	did := auth.DIDFromContext(c)
	limit := parseIntQuery(c, "limit", 50, 1, 100)

	events, err := h.feedRepo.ListForDID(did, limit)
	if err != nil {
		slog.Error("Failed to list feed events", "did", did, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": eventResponses(events)})
}

func eventResponses(events []database.FeedEvent) []gin.H {
	result := make([]gin.H, 0, len(events))
	for _, event := range events {
		entry := gin.H{
			"id":          event.ID,
			"did":         event.DID,
			"type":        event.EventType,
			"subject_uri": event.SubjectURI,
			"created_at":  event.CreatedAt,
		}
		if event.MediaID != "" {
			entry["media_id"] = event.MediaID
		}
		if len(event.Payload) > 0 {
			entry["payload"] = event.Payload
		}
		result = append(result, entry)
	}
	return result
}
