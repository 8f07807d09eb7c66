package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/database"
)

// PDS access tokens are short-lived; assume this lifetime after a refresh so
// the session stays ahead of expiry.
const refreshedTokenLifetime = 2 * time.Hour

// RefreshSessionTask rotates the PDS tokens of a stored session before the
// access token expires, so record writes on behalf of the user keep working
// without forcing a new login.
type RefreshSessionTask struct {
	Task
	SessionID   string
	client      atproto.ClientInterface
	sessionRepo database.SessionRepository
}

func NewRefreshSessionTask(sessionID string, client atproto.ClientInterface,
	sessionRepo database.SessionRepository) *RefreshSessionTask {
	return &RefreshSessionTask{
		Task:        NewTask(TaskTypeRefreshSession, sessionID),
		SessionID:   sessionID,
		client:      client,
		sessionRepo: sessionRepo,
	}
}

func (t *RefreshSessionTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	session, err := t.sessionRepo.GetSession(t.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		slog.Debug("Session gone, skipping refresh", "session_id", t.SessionID)
		return nil
	}

	pdsSession, err := t.client.RefreshSession(ctx, session.RefreshJwt)
	if err != nil {
		// A rejected refresh token cannot recover; drop the session so the
		// user is asked to log in again.
		if deleteErr := t.sessionRepo.DeleteSession(session.ID); deleteErr != nil {
			slog.Error("Failed to delete stale session", "session_id", session.ID, "error", deleteErr)
		}
		slog.Warn("Session refresh rejected, session deleted", "did", session.DID, "error", err)
		return nil
	}

	err = t.sessionRepo.UpdateSessionTokens(session.ID, pdsSession.AccessJwt,
		pdsSession.RefreshJwt, time.Now().Add(refreshedTokenLifetime))
	if err != nil {
		slog.Error("Task failed", "type", "RefreshSession", "session_id", session.ID, "error", err)
		return fmt.Errorf("failed to update session tokens: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshSession",
		"did", session.DID,
		"duration", t.GetDuration())

	return nil
}
