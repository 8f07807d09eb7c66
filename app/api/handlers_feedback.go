package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/auth"
)

// CreateFeedback stores a feedback submission. Anonymous submissions are
// accepted; the DID is recorded when the request carries a valid session.
func (h *Handler) CreateFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	did := auth.DIDFromContext(c)

	feedback, err := h.feedbackRepo.CreateFeedback(did, req.Category, req.Message)
	if err != nil {
		slog.Error("Failed to store feedback", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         feedback.ID,
		"category":   feedback.Category,
		"created_at": feedback.CreatedAt,
	})
}

// ListFeedback returns feedback submissions for operators, newest first.
func (h *Handler) ListFeedback(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100, 1, 500)
	offset := parseIntQuery(c, "offset", 0, 0, 100000)

	entries, err := h.feedbackRepo.ListFeedback(limit, offset)
	if err != nil {
		slog.Error("Failed to list feedback", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedback"})
		return
	}

	result := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		result = append(result, gin.H{
			"id":         entry.ID,
			"did":        entry.DID,
			"category":   entry.Category,
			"message":    entry.Message,
			"created_at": entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"feedback": result})
}
