package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
)

// CreateComment writes a comment record referencing a review or collection.
func (h *Handler) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if _, _, _, err := atproto.ParseURI(req.Subject); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid subject",
			"message": "Subject must be an at:// URI",
		})
		return
	}

	session := auth.SessionFromContext(c)

	value := map[string]interface{}{
		"subject": req.Subject,
		"text":    req.Text,
	}

	record, ok := h.writeRecord(c, NSIDComment, atproto.NewTID(), value, false)
	if !ok {
		return
	}

	h.emitEvent(session.DID, "comment.created", record.URI, h.mediaIDForSubject(req.Subject), gin.H{
		"subject": req.Subject,
	})

	c.JSON(http.StatusCreated, recordResponse(*record))
}

// DeleteComment removes a comment record from the caller's repository.
func (h *Handler) DeleteComment(c *gin.Context) {
	if !h.deleteRecord(c, NSIDComment, c.Param("rkey")) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// CreateReaction writes a like record and bumps the cached like count when
// the subject is a mirrored review.
func (h *Handler) CreateReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if _, _, _, err := atproto.ParseURI(req.Subject); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid subject",
			"message": "Subject must be an at:// URI",
		})
		return
	}

	session := auth.SessionFromContext(c)

	value := map[string]interface{}{
		"subject": req.Subject,
		"value":   "like",
	}

	record, ok := h.writeRecord(c, NSIDReaction, atproto.NewTID(), value, false)
	if !ok {
		return
	}

	if err := h.reviewRepo.AdjustLikeCount(req.Subject, 1); err != nil {
		slog.Error("Failed to adjust like count", "subject", req.Subject, "error", err)
	}

	h.emitEvent(session.DID, "reaction.created", record.URI, h.mediaIDForSubject(req.Subject), gin.H{
		"subject": req.Subject,
	})

	c.JSON(http.StatusCreated, recordResponse(*record))
}

// DeleteReaction removes a like record and decrements the cached like count.
// The record key is required because reactions are not indexed locally.
func (h *Handler) DeleteReaction(c *gin.Context) {
	var req reactionDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if !h.deleteRecord(c, NSIDReaction, req.RKey) {
		return
	}

	if err := h.reviewRepo.AdjustLikeCount(req.Subject, -1); err != nil {
		slog.Error("Failed to adjust like count", "subject", req.Subject, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// mediaIDForSubject resolves the media item behind a review URI so feed
// events can point at it. Subjects that are not mirrored reviews yield an
// empty ID.
func (h *Handler) mediaIDForSubject(subject string) string {
	review, err := h.reviewRepo.GetReviewByURI(subject)
	if err != nil || review == nil {
		return ""
	}
	return review.MediaID
}
