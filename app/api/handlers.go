package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if mediaCount, err := h.mediaRepo.GetMediaCount(); err == nil {
		health["media_items"] = mediaCount
	}

	health["loaded_definitions"] = h.lexicons.GetDefinitionCount()
	health["cache"] = h.cache.Health()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if userCount, err := h.userRepo.GetUserCount(); err == nil {
		stats["users"] = userCount
	}
	if sessionCount, err := h.sessionRepo.GetSessionCount(); err == nil {
		stats["sessions"] = sessionCount
	}
	if mediaCount, err := h.mediaRepo.GetMediaCount(); err == nil {
		stats["media_items"] = mediaCount
	}
	if reviewCount, err := h.reviewRepo.GetReviewCount(); err == nil {
		stats["reviews"] = reviewCount
	}
	if eventCount, err := h.feedRepo.GetEventCount(); err == nil {
		stats["feed_events"] = eventCount
	}
	if feedbackCount, err := h.feedbackRepo.GetFeedbackCount(); err == nil {
		stats["feedback"] = feedbackCount
	}

	c.JSON(http.StatusOK, stats)
}
