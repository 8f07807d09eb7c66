package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SessionRepository = (*SessionRepo)(nil)

// SessionRepo handles database operations for PDS sessions
type SessionRepo struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) CreateSession(did, pdsURL, accessJwt, refreshJwt string, accessExpiresAt time.Time) (*Session, error) {
	var session Session
	err := r.db.QueryRow(`
		INSERT INTO sessions (did, pds_url, access_jwt, refresh_jwt, access_expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, did, pds_url, access_jwt, refresh_jwt, access_expires_at, created_at, updated_at
	`, did, pdsURL, accessJwt, refreshJwt, accessExpiresAt).Scan(
		&session.ID, &session.DID, &session.PDSUrl, &session.AccessJwt,
		&session.RefreshJwt, &session.AccessExpiresAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &session, nil
}

func (r *SessionRepo) GetSession(id string) (*Session, error) {
	var session Session
	err := r.db.QueryRow(`
		SELECT id, did, pds_url, access_jwt, refresh_jwt, access_expires_at, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(
		&session.ID, &session.DID, &session.PDSUrl, &session.AccessJwt,
		&session.RefreshJwt, &session.AccessExpiresAt, &session.CreatedAt, &session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

func (r *SessionRepo) UpdateSessionTokens(id, accessJwt, refreshJwt string, accessExpiresAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sessions
		SET access_jwt = $2, refresh_jwt = $3, access_expires_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id, accessJwt, refreshJwt, accessExpiresAt)

	if err != nil {
		return fmt.Errorf("failed to update session tokens: %w", err)
	}

	return nil
}

func (r *SessionRepo) DeleteSession(id string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSessionsExpiringBefore returns sessions whose PDS access token expires
// before the cutoff, oldest first. Used by the refresh task.
func (r *SessionRepo) GetSessionsExpiringBefore(cutoff time.Time, limit int) ([]Session, error) {
	rows, err := r.db.Query(`
		SELECT id, did, pds_url, access_jwt, refresh_jwt, access_expires_at, created_at, updated_at
		FROM sessions
		WHERE access_expires_at <= $1
		ORDER BY access_expires_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get expiring sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		err := rows.Scan(
			&session.ID, &session.DID, &session.PDSUrl, &session.AccessJwt,
			&session.RefreshJwt, &session.AccessExpiresAt, &session.CreatedAt, &session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepo) GetSessionCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get session count: %w", err)
	}
	return count, nil
}
