package api

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/database"
)

// ListTags returns the caller's tags with their media counts.
func (h *Handler) ListTags(c *gin.Context) {
	did := auth.DIDFromContext(c)

	tags, err := h.tagRepo.ListTags(did)
	if err != nil {
		slog.Error("Failed to list tags", "did", did, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tags"})
		return
	}

	result := make([]gin.H, 0, len(tags))
	for _, tag := range tags {
		result = append(result, tagResponse(tag))
	}

	c.JSON(http.StatusOK, gin.H{"tags": result})
}

// CreateTag creates a tag for the caller, or refreshes the display name of an
// existing tag with the same slug.
func (h *Handler) CreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	slug := slugify(req.Name)
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid tag name",
			"message": "Tag name must contain at least one letter or digit",
		})
		return
	}

	did := auth.DIDFromContext(c)

	tag, err := h.tagRepo.CreateTag(did, req.Name, slug)
	if err != nil {
		slog.Error("Failed to create tag", "did", did, "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	c.JSON(http.StatusCreated, tagResponse(*tag))
}

// DeleteTag removes a tag and its media assignments.
func (h *Handler) DeleteTag(c *gin.Context) {
	did := auth.DIDFromContext(c)

	deleted, err := h.tagRepo.DeleteTag(c.Param("id"), did)
	if err != nil {
		slog.Error("Failed to delete tag", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListTagMedia returns the media items the caller filed under a tag.
func (h *Handler) ListTagMedia(c *gin.Context) {
	did := auth.DIDFromContext(c)
	limit := parseIntQuery(c, "limit", 50, 1, 100)

	items, err := h.tagRepo.ListMediaForTag(did, c.Param("slug"), limit)
	if err != nil {
		slog.Error("Failed to list media for tag", "slug", c.Param("slug"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list media"})
		return
	}

	result := make([]gin.H, 0, len(items))
	for i := range items {
		result = append(result, mediaResponse(&items[i], statsOf(&items[i])))
	}

	c.JSON(http.StatusOK, gin.H{"media": result})
}

// ListMediaTags returns the caller's tags on a media item.
func (h *Handler) ListMediaTags(c *gin.Context) {
	did := auth.DIDFromContext(c)

	tags, err := h.tagRepo.ListTagsForMedia(did, c.Param("id"))
	if err != nil {
		slog.Error("Failed to list media tags", "media_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tags"})
		return
	}

	result := make([]gin.H, 0, len(tags))
	for _, tag := range tags {
		result = append(result, tagResponse(tag))
	}

	c.JSON(http.StatusOK, gin.H{"tags": result})
}

// AddMediaTag files a media item under one of the caller's tags.
func (h *Handler) AddMediaTag(c *gin.Context) {
	var req mediaTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	media, err := h.mediaRepo.GetMedia(c.Param("id"))
	if err != nil {
		slog.Error("Failed to load media item", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load media item"})
		return
	}
	if media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media item not found"})
		return
	}

	did := auth.DIDFromContext(c)

	tagged, err := h.tagRepo.AddMediaTag(did, req.TagID, media.ID)
	if err != nil {
		slog.Error("Failed to tag media item", "tag_id", req.TagID, "media_id", media.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to tag media item"})
		return
	}
	if !tagged {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "tagged"})
}

// RemoveMediaTag removes a tag assignment from a media item.
func (h *Handler) RemoveMediaTag(c *gin.Context) {
	did := auth.DIDFromContext(c)

	removed, err := h.tagRepo.RemoveMediaTag(did, c.Param("tagId"), c.Param("id"))
	if err != nil {
		slog.Error("Failed to untag media item", "tag_id", c.Param("tagId"), "media_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to untag media item"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "untagged"})
}

func tagResponse(tag database.Tag) gin.H {
	return gin.H{
		"id":          tag.ID,
		"name":        tag.Name,
		"slug":        tag.Slug,
		"media_count": tag.MediaCount,
		"created_at":  tag.CreatedAt,
	}
}

// slugify lowercases a tag name and collapses non-alphanumeric runs into
// single dashes.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
