package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/jornt/medialog/app/stats"
)

var _ ReviewRepository = (*ReviewRepo)(nil)

// ReviewRepo handles database operations for the cached review mirror.
// Rating aggregates on media_items change only inside the transactions
// here, with the media row locked, so concurrent review writes serialize.
type ReviewRepo struct {
	db *DB
}

func NewReviewRepository(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewColumns = `
	id, uri, did, media_id, rating, COALESCE(body, ''), like_count, created_at, updated_at`

func (r *ReviewRepo) GetReviewByURI(uri string) (*Review, error) {
	var review Review
	err := r.db.QueryRow(`
		SELECT`+reviewColumns+`
		FROM reviews
		WHERE uri = $1
	`, uri).Scan(
		&review.ID, &review.URI, &review.DID, &review.MediaID, &review.Rating,
		&review.Body, &review.LikeCount, &review.CreatedAt, &review.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

func (r *ReviewRepo) GetReviewForMedia(did, mediaID string) (*Review, error) {
	var review Review
	err := r.db.QueryRow(`
		SELECT`+reviewColumns+`
		FROM reviews
		WHERE did = $1 AND media_id = $2
	`, did, mediaID).Scan(
		&review.ID, &review.URI, &review.DID, &review.MediaID, &review.Rating,
		&review.Body, &review.LikeCount, &review.CreatedAt, &review.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

func (r *ReviewRepo) ListReviewsForMedia(mediaID string, limit, offset int) ([]Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT`+reviewColumns+`
		FROM reviews
		WHERE media_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, mediaID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID, &review.URI, &review.DID, &review.MediaID, &review.Rating,
			&review.Body, &review.LikeCount, &review.CreatedAt, &review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}

	return reviews, nil
}

func (r *ReviewRepo) ListRatingsForMedia(mediaID string) ([]int, error) {
	rows, err := r.db.Query("SELECT rating FROM reviews WHERE media_id = $1", mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// UpsertReview inserts or updates the cached review row and applies the
// rating delta to the media aggregates in one transaction. The media row is
// locked first so two reviews for the same item cannot interleave.
func (r *ReviewRepo) UpsertReview(uri, did, mediaID string, rating int, body string) (*Review, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ratings, reviewCount, err := lockMediaAggregates(tx, mediaID)
	if err != nil {
		return nil, err
	}

	var oldRating *int
	var existing int
	err = tx.QueryRow("SELECT rating FROM reviews WHERE uri = $1 FOR UPDATE", uri).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if err == nil {
		oldRating = &existing
	}

	newRating := rating
	if err := ratings.Apply(oldRating, &newRating); err != nil {
		return nil, fmt.Errorf("failed to apply rating delta: %w", err)
	}
	if oldRating == nil {
		reviewCount++
	}

	var review Review
	err = tx.QueryRow(`
		INSERT INTO reviews (uri, did, media_id, rating, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uri) DO UPDATE SET
			rating = EXCLUDED.rating,
			body = EXCLUDED.body,
			updated_at = NOW()
		RETURNING`+reviewColumns,
		uri, did, mediaID, rating, nullIfEmpty(body)).Scan(
		&review.ID, &review.URI, &review.DID, &review.MediaID, &review.Rating,
		&review.Body, &review.LikeCount, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert review: %w", err)
	}

	if err := writeMediaAggregates(tx, mediaID, ratings, reviewCount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review upsert: %w", err)
	}

	return &review, nil
}

// DeleteReview removes the cached review row and rolls its rating out of the
// media aggregates in one transaction. Deleting an unknown URI is a no-op.
// Locks are taken in the same order as UpsertReview (media row first, then
// review row) so concurrent writes on the same media item cannot deadlock.
func (r *ReviewRepo) DeleteReview(uri string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var mediaID string
	err = tx.QueryRow("SELECT media_id FROM reviews WHERE uri = $1", uri).Scan(&mediaID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load review for delete: %w", err)
	}

	ratings, reviewCount, err := lockMediaAggregates(tx, mediaID)
	if err != nil {
		return err
	}

	// Re-check under the media lock; the row may be gone by now
	var rating int
	err = tx.QueryRow("SELECT rating FROM reviews WHERE uri = $1 FOR UPDATE", uri).Scan(&rating)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock review for delete: %w", err)
	}

	if err := ratings.Apply(&rating, nil); err != nil {
		return fmt.Errorf("failed to apply rating delta: %w", err)
	}
	reviewCount--

	if _, err := tx.Exec("DELETE FROM reviews WHERE uri = $1", uri); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if err := writeMediaAggregates(tx, mediaID, ratings, reviewCount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review delete: %w", err)
	}

	return nil
}

func (r *ReviewRepo) AdjustLikeCount(uri string, delta int) error {
	_, err := r.db.Exec(`
		UPDATE reviews
		SET like_count = GREATEST(like_count + $2, 0), updated_at = NOW()
		WHERE uri = $1
	`, uri, delta)

	if err != nil {
		return fmt.Errorf("failed to adjust like count: %w", err)
	}

	return nil
}

func (r *ReviewRepo) GetReviewCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM reviews").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get review count: %w", err)
	}
	return count, nil
}

func lockMediaAggregates(tx *sql.Tx, mediaID string) (stats.Ratings, int, error) {
	var ratings stats.Ratings
	var dist []int64
	var reviewCount int

	err := tx.QueryRow(`
		SELECT rating_count, rating_sum, rating_dist, review_count
		FROM media_items
		WHERE id = $1
		FOR UPDATE
	`, mediaID).Scan(&ratings.Count, &ratings.Sum, pq.Array(&dist), &reviewCount)
	if err == sql.ErrNoRows {
		return ratings, 0, fmt.Errorf("media item %s not found", mediaID)
	}
	if err != nil {
		return ratings, 0, fmt.Errorf("failed to lock media aggregates: %w", err)
	}

	for i := 0; i < len(dist) && i < stats.Buckets; i++ {
		ratings.Dist[i] = int(dist[i])
	}

	return ratings, reviewCount, nil
}

func writeMediaAggregates(tx *sql.Tx, mediaID string, ratings stats.Ratings, reviewCount int) error {
	_, err := tx.Exec(`
		UPDATE media_items
		SET rating_count = $2, rating_sum = $3, rating_dist = $4, review_count = $5, updated_at = NOW()
		WHERE id = $1
	`, mediaID, ratings.Count, ratings.Sum, distArray(ratings), reviewCount)

	if err != nil {
		return fmt.Errorf("failed to update media aggregates: %w", err)
	}

	return nil
}
