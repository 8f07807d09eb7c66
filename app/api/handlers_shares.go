package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/cfg"
	"github.com/jornt/medialog/app/database"
)

const shareCacheTTL = 5 * time.Minute

// CreateShare mints a public link for a record or media item owned by the
// caller.
func (h *Handler) CreateShare(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if !validShareSubject(req.SubjectURI) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid subject",
			"message": "Subject must be an at:// URI or media:<id>",
		})
		return
	}

	did := auth.DIDFromContext(c)

	var expiresAt *time.Time
	if req.TTLSeconds > 0 {
		t := time.Now().Add(time.Duration(req.TTLSeconds) * time.Second)
		expiresAt = &t
	}

	share, err := h.shareRepo.CreateShare(did, uuid.NewString(), req.SubjectURI, expiresAt)
	if err != nil {
		slog.Error("Failed to create share link", "did", did, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create share link"})
		return
	}

	c.JSON(http.StatusCreated, shareResponse(*share))
}

// ListShares returns the caller's share links.
func (h *Handler) ListShares(c *gin.Context) {
	did := auth.DIDFromContext(c)

	shares, err := h.shareRepo.ListShares(did)
	if err != nil {
		slog.Error("Failed to list share links", "did", did, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list share links"})
		return
	}

	result := make([]gin.H, 0, len(shares))
	for _, share := range shares {
		result = append(result, shareResponse(share))
	}

	c.JSON(http.StatusOK, gin.H{"shares": result})
}

// DeleteShare revokes a share link owned by the caller.
func (h *Handler) DeleteShare(c *gin.Context) {
	did := auth.DIDFromContext(c)

	deleted, err := h.shareRepo.DeleteShare(c.Param("id"), did)
	if err != nil {
		slog.Error("Failed to delete share link", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete share link"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Share link not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ResolveShare resolves a public share token to its subject. No
// authentication is required; expired links answer 410.
func (h *Handler) ResolveShare(c *gin.Context) {
	token := c.Param("token")

	var share *database.ShareLink
	if cached, err := h.cache.Get(cache.ShareKey(token)); err == nil && cached != "" {
		var s database.ShareLink
		if err := json.Unmarshal([]byte(cached), &s); err == nil {
			share = &s
		}
	}

	if share == nil {
		var err error
		share, err = h.shareRepo.GetShareByToken(token)
		if err != nil {
			slog.Error("Failed to resolve share link", "token", token, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve share link"})
			return
		}
		if share == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Share link not found"})
			return
		}

		if data, err := json.Marshal(share); err == nil {
			if err := h.cache.Set(cache.ShareKey(token), string(data), shareCacheTTL); err != nil {
				slog.Debug("Failed to cache share link", "token", token, "error", err)
			}
		}
	}

	if share.ExpiresAt != nil && share.ExpiresAt.Before(time.Now()) {
		c.JSON(http.StatusGone, gin.H{"error": "Share link expired"})
		return
	}

	if err := h.shareRepo.RecordVisit(token); err != nil {
		slog.Debug("Failed to record share visit", "token", token, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_uri": share.SubjectURI,
		"owner_did":   share.DID,
	})
}

func validShareSubject(subject string) bool {
	if strings.HasPrefix(subject, "media:") {
		return len(subject) > len("media:")
	}
	_, _, _, err := atproto.ParseURI(subject)
	return err == nil
}

func shareResponse(share database.ShareLink) gin.H {
	return gin.H{
		"id":          share.ID,
		"token":       share.Token,
		"url":         cfg.Get().BaseUrl + "/s/" + share.Token,
		"subject_uri": share.SubjectURI,
		"expires_at":  share.ExpiresAt,
		"visit_count": share.VisitCount,
		"created_at":  share.CreatedAt,
	}
}
