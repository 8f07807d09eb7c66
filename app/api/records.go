package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/database"
)

// writeRecord validates a record value against its registered definition and
// writes it to the caller's PDS repository. A false result means the response
// has already been written.
func (h *Handler) writeRecord(c *gin.Context, nsid, rkey string, value map[string]interface{}, update bool) (*atproto.Record, bool) {
	session := auth.SessionFromContext(c)

	value["$type"] = nsid
	if !update {
		value["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}

	if err := h.lexicons.ValidateRecord(nsid, value); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Invalid record",
			"message": err.Error(),
		})
		return nil, false
	}

	var record *atproto.Record
	var err error
	if update {
		record, err = h.atclient.PutRecord(c.Request.Context(), session.AccessJwt, session.DID, nsid, rkey, value)
	} else {
		record, err = h.atclient.CreateRecord(c.Request.Context(), session.AccessJwt, session.DID, nsid, rkey, value)
	}
	if err != nil {
		slog.Error("PDS write failed", "did", session.DID, "collection", nsid, "rkey", rkey, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "PDS write failed",
			"message": "The record could not be written to your repository",
		})
		return nil, false
	}

	return record, true
}

// deleteRecord removes a record from the caller's PDS repository. A false
// result means the response has already been written.
func (h *Handler) deleteRecord(c *gin.Context, nsid, rkey string) bool {
	session := auth.SessionFromContext(c)

	err := h.atclient.DeleteRecord(c.Request.Context(), session.AccessJwt, session.DID, nsid, rkey)
	if err != nil {
		slog.Error("PDS delete failed", "did", session.DID, "collection", nsid, "rkey", rkey, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "PDS delete failed",
			"message": "The record could not be removed from your repository",
		})
		return false
	}

	return true
}

// emitEvent records a feed event. Event persistence is best effort and never
// fails the request that produced it.
func (h *Handler) emitEvent(did, eventType, subjectURI, mediaID string, payload interface{}) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Failed to encode feed event payload", "type", eventType, "error", err)
			return
		}
		raw = data
	}

	err := h.feedRepo.CreateEvent(database.FeedEvent{
		DID:        did,
		EventType:  eventType,
		SubjectURI: subjectURI,
		MediaID:    mediaID,
		Payload:    raw,
	})
	if err != nil {
		slog.Error("Failed to record feed event", "type", eventType, "error", err)
	}
}

// recordResponse shapes a PDS record for API responses.
func recordResponse(record atproto.Record) gin.H {
	_, _, rkey, err := atproto.ParseURI(record.URI)
	if err != nil {
		rkey = ""
	}
	return gin.H{
		"uri":   record.URI,
		"cid":   record.CID,
		"rkey":  rkey,
		"value": record.Value,
	}
}
