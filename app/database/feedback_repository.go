package database

import (
	"fmt"
)

var _ FeedbackRepository = (*FeedbackRepo)(nil)

// FeedbackRepo handles database operations for user feedback
type FeedbackRepo struct {
	db *DB
}

func NewFeedbackRepository(db *DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

func (r *FeedbackRepo) CreateFeedback(did, category, message string) (*Feedback, error) {
	var fb Feedback
	err := r.db.QueryRow(`
		INSERT INTO feedback (did, category, message)
		VALUES ($1, $2, $3)
		RETURNING id, COALESCE(did, ''), category, message, created_at
	`, nullIfEmpty(did), category, message).Scan(
		&fb.ID, &fb.DID, &fb.Category, &fb.Message, &fb.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	return &fb, nil
}

func (r *FeedbackRepo) ListFeedback(limit, offset int) ([]Feedback, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT id, COALESCE(did, ''), category, message, created_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var items []Feedback
	for rows.Next() {
		var fb Feedback
		err := rows.Scan(&fb.ID, &fb.DID, &fb.Category, &fb.Message, &fb.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		items = append(items, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback rows: %w", err)
	}

	return items, nil
}

func (r *FeedbackRepo) GetFeedbackCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feedback count: %w", err)
	}
	return count, nil
}
