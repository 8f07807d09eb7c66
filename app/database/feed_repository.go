package database

import (
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepo)(nil)

// FeedRepo handles database operations for feed events
type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const feedColumns = `
	id, did, event_type, subject_uri, COALESCE(media_id::text, ''), payload, created_at`

func (r *FeedRepo) CreateEvent(event FeedEvent) error {
	_, err := r.db.Exec(`
		INSERT INTO feed_events (did, event_type, subject_uri, media_id, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, event.DID, event.EventType, event.SubjectURI,
		nullIfEmpty(event.MediaID), nullIfEmptyBytes(event.Payload))

	if err != nil {
		return fmt.Errorf("failed to create feed event: %w", err)
	}

	return nil
}

func (r *FeedRepo) ListRecent(limit int, before *time.Time) ([]FeedEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT`+feedColumns+`
		FROM feed_events
		WHERE $2::timestamptz IS NULL OR created_at < $2
		ORDER BY created_at DESC
		LIMIT $1
	`, limit, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed events: %w", err)
	}
	defer rows.Close()

	return scanFeedEvents(rows)
}

func (r *FeedRepo) ListForDID(did string, limit int) ([]FeedEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT`+feedColumns+`
		FROM feed_events
		WHERE did = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, did, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed events for DID: %w", err)
	}
	defer rows.Close()

	return scanFeedEvents(rows)
}

func (r *FeedRepo) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feed_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed event count: %w", err)
	}
	return count, nil
}

func scanFeedEvents(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]FeedEvent, error) {
	var events []FeedEvent
	for rows.Next() {
		var event FeedEvent
		var payload []byte
		err := rows.Scan(
			&event.ID, &event.DID, &event.EventType, &event.SubjectURI,
			&event.MediaID, &payload, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed event row: %w", err)
		}
		event.Payload = payload
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed event rows: %w", err)
	}

	return events, nil
}

func nullIfEmptyBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
