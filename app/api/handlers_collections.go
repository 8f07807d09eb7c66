package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
)

// ListCollections returns all collection records in the caller's repository.
func (h *Handler) ListCollections(c *gin.Context) {
	session := auth.SessionFromContext(c)

	list, err := h.atclient.ListRecords(c.Request.Context(), session.DID, NSIDCollection, c.Query("cursor"), 100)
	if err != nil {
		slog.Error("Failed to list collections", "did", session.DID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list collections"})
		return
	}

	collections := make([]gin.H, 0, len(list.Records))
	for _, record := range list.Records {
		collections = append(collections, recordResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"cursor":      list.Cursor,
	})
}

// CreateCollection writes a new collection record to the caller's repository.
func (h *Handler) CreateCollection(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	value := map[string]interface{}{
		"name": req.Name,
	}
	if req.Description != "" {
		value["description"] = req.Description
	}
	if req.Visibility != "" {
		value["visibility"] = req.Visibility
	}

	record, ok := h.writeRecord(c, NSIDCollection, atproto.NewTID(), value, false)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, recordResponse(*record))
}

// GetCollection returns a single collection record.
func (h *Handler) GetCollection(c *gin.Context) {
	session := auth.SessionFromContext(c)
	rkey := c.Param("rkey")

	record, err := h.atclient.GetRecord(c.Request.Context(), session.DID, NSIDCollection, rkey)
	if err != nil {
		slog.Error("Failed to load collection", "did", session.DID, "rkey", rkey, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load collection"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	c.JSON(http.StatusOK, recordResponse(*record))
}

// UpdateCollection replaces a collection record.
func (h *Handler) UpdateCollection(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	session := auth.SessionFromContext(c)
	rkey := c.Param("rkey")

	existing, err := h.atclient.GetRecord(c.Request.Context(), session.DID, NSIDCollection, rkey)
	if err != nil {
		slog.Error("Failed to load collection", "did", session.DID, "rkey", rkey, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load collection"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	value := map[string]interface{}{
		"name": req.Name,
	}
	if req.Description != "" {
		value["description"] = req.Description
	}
	if req.Visibility != "" {
		value["visibility"] = req.Visibility
	}
	if createdAt, ok := existing.Value["createdAt"]; ok {
		value["createdAt"] = createdAt
	}

	record, ok := h.writeRecord(c, NSIDCollection, rkey, value, true)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, recordResponse(*record))
}

// DeleteCollection removes a collection record. Item records that reference
// it become orphans and are skipped when listing.
func (h *Handler) DeleteCollection(c *gin.Context) {
	if !h.deleteRecord(c, NSIDCollection, c.Param("rkey")) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListCollectionItems returns the item records that belong to a collection.
// Item records live in their own collection on the PDS, so membership is
// filtered by the collection URI they reference.
func (h *Handler) ListCollectionItems(c *gin.Context) {
	session := auth.SessionFromContext(c)
	collectionURI := atproto.BuildURI(session.DID, NSIDCollection, c.Param("rkey"))

	items := make([]gin.H, 0)
	cursor := ""
	for {
		list, err := h.atclient.ListRecords(c.Request.Context(), session.DID, NSIDItem, cursor, 100)
		if err != nil {
			slog.Error("Failed to list items", "did", session.DID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list items"})
			return
		}

		for _, record := range list.Records {
			if ref, ok := record.Value["collection"].(string); ok && ref == collectionURI {
				items = append(items, recordResponse(record))
			}
		}

		if list.Cursor == "" || len(list.Records) == 0 {
			break
		}
		cursor = list.Cursor
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddCollectionItem writes an item record referencing the collection and a
// cached media item.
func (h *Handler) AddCollectionItem(c *gin.Context) {
	var req itemRequest
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

	value := map[string]interface{}{
		"collection": atproto.BuildURI(session.DID, NSIDCollection, c.Param("rkey")),
		"mediaRef":   media.Source + ":" + media.SourceID,
		"kind":       media.Kind,
		"title":      media.Title,
	}
	if req.Note != "" {
		value["note"] = req.Note
	}
	if req.Status != "" {
		value["status"] = req.Status
	}

	record, ok := h.writeRecord(c, NSIDItem, atproto.NewTID(), value, false)
	if !ok {
		return
	}

	h.emitEvent(session.DID, "item.added", record.URI, media.ID, gin.H{
		"title": media.Title,
		"kind":  media.Kind,
	})

	c.JSON(http.StatusCreated, recordResponse(*record))
}

// RemoveCollectionItem deletes an item record.
func (h *Handler) RemoveCollectionItem(c *gin.Context) {
	if !h.deleteRecord(c, NSIDItem, c.Param("itemRkey")) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
