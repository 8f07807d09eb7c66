package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/cache"
)

// CreateReview writes a review record to the caller's repository and mirrors
// it into the local cache, updating the media item's rating aggregates in the
// same transaction.
func (h *Handler) CreateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	session := auth.SessionFromContext(c)

	media, err := h.mediaRepo.GetMedia(req.MediaID)
	if err != nil {
		slog.Error("Failed to load media item", "id", req.MediaID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load media item"})
		return
	}
	if media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media item not found"})
		return
	}

	// One review per user per media item. Check before touching the PDS so
	// a duplicate never leaves an orphaned record in the user's repository.
	existing, err := h.reviewRepo.GetReviewForMedia(session.DID, media.ID)
	if err != nil {
		slog.Error("Failed to check existing review", "did", session.DID, "media_id", media.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing review"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Review already exists",
			"message": "Update the existing review instead",
			"rkey":    rkeyOf(existing.URI),
		})
		return
	}

	value := map[string]interface{}{
		"mediaRef": media.Source + ":" + media.SourceID,
		"rating":   req.Rating,
	}
	if req.Text != "" {
		value["text"] = req.Text
	}
	if req.Spoilers {
		value["spoilers"] = true
	}

	record, ok := h.writeRecord(c, NSIDReview, atproto.NewTID(), value, false)
	if !ok {
		return
	}

	review, err := h.reviewRepo.UpsertReview(record.URI, session.DID, media.ID, req.Rating, req.Text)
	if err != nil {
		slog.Error("Failed to cache review", "uri", record.URI, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store review"})
		return
	}

	h.invalidateMediaStats(media.ID)
	h.emitEvent(session.DID, "review.created", record.URI, media.ID, gin.H{
		"rating": req.Rating,
		"title":  media.Title,
	})

	c.JSON(http.StatusCreated, gin.H{
		"uri":    review.URI,
		"rkey":   rkeyOf(review.URI),
		"rating": review.Rating,
		"body":   review.Body,
	})
}

// UpdateReview replaces a review record and re-applies its rating to the
// cached aggregates.
func (h *Handler) UpdateReview(c *gin.Context) {
	var req reviewUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	session := auth.SessionFromContext(c)
	uri := atproto.BuildURI(session.DID, NSIDReview, c.Param("rkey"))

	existing, err := h.reviewRepo.GetReviewByURI(uri)
	if err != nil {
		slog.Error("Failed to load review", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load review"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}

	media, err := h.mediaRepo.GetMedia(existing.MediaID)
	if err != nil || media == nil {
		slog.Error("Failed to load media item for review", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load media item"})
		return
	}

	value := map[string]interface{}{
		"mediaRef":  media.Source + ":" + media.SourceID,
		"rating":    req.Rating,
		"createdAt": existing.CreatedAt.UTC().Format(time.RFC3339),
	}
	if req.Text != "" {
		value["text"] = req.Text
	}
	if req.Spoilers {
		value["spoilers"] = true
	}

	record, ok := h.writeRecord(c, NSIDReview, c.Param("rkey"), value, true)
	if !ok {
		return
	}

	review, err := h.reviewRepo.UpsertReview(uri, session.DID, media.ID, req.Rating, req.Text)
	if err != nil {
		slog.Error("Failed to update cached review", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store review"})
		return
	}

	h.invalidateMediaStats(media.ID)
	h.emitEvent(session.DID, "review.updated", record.URI, media.ID, gin.H{
		"rating": req.Rating,
	})

	c.JSON(http.StatusOK, gin.H{
		"uri":    review.URI,
		"rkey":   rkeyOf(review.URI),
		"rating": review.Rating,
		"body":   review.Body,
	})
}

// DeleteReview removes a review record and subtracts its rating from the
// cached aggregates.
func (h *Handler) DeleteReview(c *gin.Context) {
	session := auth.SessionFromContext(c)
	uri := atproto.BuildURI(session.DID, NSIDReview, c.Param("rkey"))

	existing, err := h.reviewRepo.GetReviewByURI(uri)
	if err != nil {
		slog.Error("Failed to load review", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load review"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}

	if !h.deleteRecord(c, NSIDReview, c.Param("rkey")) {
		return
	}

	if err := h.reviewRepo.DeleteReview(uri); err != nil {
		slog.Error("Failed to delete cached review", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
		return
	}

	h.invalidateMediaStats(existing.MediaID)
	h.emitEvent(session.DID, "review.deleted", uri, existing.MediaID, nil)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListMediaReviews returns cached reviews for a media item, newest first.
func (h *Handler) ListMediaReviews(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50, 1, 100)
	offset := parseIntQuery(c, "offset", 0, 0, 100000)

	reviews, err := h.reviewRepo.ListReviewsForMedia(c.Param("id"), limit, offset)
	if err != nil {
		slog.Error("Failed to list reviews", "media_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reviews"})
		return
	}

	result := make([]gin.H, 0, len(reviews))
	for _, review := range reviews {
		result = append(result, gin.H{
			"uri":        review.URI,
			"did":        review.DID,
			"rating":     review.Rating,
			"body":       review.Body,
			"like_count": review.LikeCount,
			"created_at": review.CreatedAt,
			"updated_at": review.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"reviews": result})
}

func (h *Handler) invalidateMediaStats(mediaID string) {
	if err := h.cache.Delete(cache.MediaStatsKey(mediaID)); err != nil {
		slog.Debug("Failed to invalidate media stats cache", "media_id", mediaID, "error", err)
	}
}

func rkeyOf(uri string) string {
	_, _, rkey, err := atproto.ParseURI(uri)
	if err != nil {
		return ""
	}
	return rkey
}

func parseIntQuery(c *gin.Context, name string, fallback, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
