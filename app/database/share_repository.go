package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ShareRepository = (*ShareRepo)(nil)

// ShareRepo handles database operations for share links
type ShareRepo struct {
	db *DB
}

func NewShareRepository(db *DB) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareColumns = `
	id, token, did, subject_uri, expires_at, visit_count, created_at`

func (r *ShareRepo) CreateShare(did, token, subjectURI string, expiresAt *time.Time) (*ShareLink, error) {
	var share ShareLink
	err := r.db.QueryRow(`
		INSERT INTO share_links (did, token, subject_uri, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING`+shareColumns,
		did, token, subjectURI, expiresAt).Scan(
		&share.ID, &share.Token, &share.DID, &share.SubjectURI,
		&share.ExpiresAt, &share.VisitCount, &share.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}

	return &share, nil
}

func (r *ShareRepo) GetShareByToken(token string) (*ShareLink, error) {
	var share ShareLink
	err := r.db.QueryRow(`
		SELECT`+shareColumns+`
		FROM share_links
		WHERE token = $1
	`, token).Scan(
		&share.ID, &share.Token, &share.DID, &share.SubjectURI,
		&share.ExpiresAt, &share.VisitCount, &share.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	return &share, nil
}

func (r *ShareRepo) RecordVisit(token string) error {
	_, err := r.db.Exec(`
		UPDATE share_links
		SET visit_count = visit_count + 1
		WHERE token = $1
	`, token)

	if err != nil {
		return fmt.Errorf("failed to record share visit: %w", err)
	}

	return nil
}

func (r *ShareRepo) ListShares(did string) ([]ShareLink, error) {
	rows, err := r.db.Query(`
		SELECT`+shareColumns+`
		FROM share_links
		WHERE did = $1
		ORDER BY created_at DESC
	`, did)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	var shares []ShareLink
	for rows.Next() {
		var share ShareLink
		err := rows.Scan(
			&share.ID, &share.Token, &share.DID, &share.SubjectURI,
			&share.ExpiresAt, &share.VisitCount, &share.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share row: %w", err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share rows: %w", err)
	}

	return shares, nil
}

func (r *ShareRepo) DeleteShare(id, did string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM share_links WHERE id = $1 AND did = $2", id, did)
	if err != nil {
		return false, fmt.Errorf("failed to delete share link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}

func (r *ShareRepo) DeleteExpired(now time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired share links: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected, nil
}
