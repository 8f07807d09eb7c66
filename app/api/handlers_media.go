package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/database"
)

const mediaStatsTTL = 60 * time.Second

type mediaStats struct {
	RatingCount  int     `json:"rating_count"`
	RatingAvg    float64 `json:"rating_avg"`
	Distribution [10]int `json:"distribution"`
	ReviewCount  int     `json:"review_count"`
}

// UpsertMedia registers a media item in the local catalog, or returns the
// existing row for the same source identifier.
func (h *Handler) UpsertMedia(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	media, err := h.mediaRepo.UpsertMedia(req.Source, req.SourceID, req.Kind,
		req.Title, req.Creator, req.ReleaseYear, req.CoverURL)
	if err != nil {
		slog.Error("Failed to upsert media item", "source", req.Source, "source_id", req.SourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store media item"})
		return
	}

	c.JSON(http.StatusCreated, mediaResponse(media, statsOf(media)))
}

// GetMedia returns a media item with its rating aggregates. Aggregates are
// served from the cache when fresh.
func (h *Handler) GetMedia(c *gin.Context) {
	id := c.Param("id")

	if cached, err := h.cache.Get(cache.MediaStatsKey(id)); err == nil && cached != "" {
		var stats mediaStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			media, err := h.mediaRepo.GetMedia(id)
			if err == nil && media != nil {
				c.JSON(http.StatusOK, mediaResponse(media, stats))
				return
			}
		}
	}

	media, err := h.mediaRepo.GetMedia(id)
	if err != nil {
		slog.Error("Failed to load media item", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load media item"})
		return
	}
	if media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media item not found"})
		return
	}

	stats := statsOf(media)
	if data, err := json.Marshal(stats); err == nil {
		if err := h.cache.Set(cache.MediaStatsKey(id), string(data), mediaStatsTTL); err != nil {
			slog.Debug("Failed to cache media stats", "id", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, mediaResponse(media, stats))
}

// SearchMedia lists catalog entries filtered by kind and title substring.
func (h *Handler) SearchMedia(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25, 1, 100)
	offset := parseIntQuery(c, "offset", 0, 0, 100000)

	items, err := h.mediaRepo.SearchMedia(c.Query("kind"), c.Query("q"), limit, offset)
	if err != nil {
		slog.Error("Failed to search media", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search media"})
		return
	}

	result := make([]gin.H, 0, len(items))
	for i := range items {
		result = append(result, mediaResponse(&items[i], statsOf(&items[i])))
	}

	c.JSON(http.StatusOK, gin.H{"media": result})
}

func statsOf(media *database.MediaItem) mediaStats {
	stats := mediaStats{
		RatingCount: media.Ratings.Count,
		RatingAvg:   media.Ratings.Average(),
		ReviewCount: media.ReviewCount,
	}
	copy(stats.Distribution[:], media.Ratings.Dist[:])
	return stats
}

func mediaResponse(media *database.MediaItem, stats mediaStats) gin.H {
	return gin.H{
		"id":           media.ID,
		"source":       media.Source,
		"source_id":    media.SourceID,
		"kind":         media.Kind,
		"title":        media.Title,
		"creator":      media.Creator,
		"release_year": media.ReleaseYear,
		"cover_url":    media.CoverURL,
		"stats":        stats,
		"created_at":   media.CreatedAt,
	}
}
