package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/jornt/medialog/app/stats"
)

var _ MediaRepository = (*MediaRepo)(nil)

// MediaRepo handles database operations for cached media items and their
// rating aggregates
type MediaRepo struct {
	db *DB
}

func NewMediaRepository(db *DB) *MediaRepo {
	return &MediaRepo{db: db}
}

const mediaColumns = `
	id, source, source_id, kind, title, COALESCE(creator, ''),
	COALESCE(release_year, 0), COALESCE(cover_url, ''),
	rating_count, rating_sum, rating_dist, review_count, created_at, updated_at`

func scanMedia(row interface{ Scan(...interface{}) error }) (*MediaItem, error) {
	var item MediaItem
	var dist []int64

	err := row.Scan(
		&item.ID, &item.Source, &item.SourceID, &item.Kind, &item.Title,
		&item.Creator, &item.ReleaseYear, &item.CoverURL,
		&item.Ratings.Count, &item.Ratings.Sum, pq.Array(&dist),
		&item.ReviewCount, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(dist) && i < stats.Buckets; i++ {
		item.Ratings.Dist[i] = int(dist[i])
	}

	return &item, nil
}

func distArray(r stats.Ratings) pq.Int64Array {
	dist := make(pq.Int64Array, stats.Buckets)
	for i, n := range r.Dist {
		dist[i] = int64(n)
	}
	return dist
}

// UpsertMedia registers a media item or refreshes its metadata. Aggregates
// are never touched here; the conflict target keeps the upsert idempotent
// per catalog identity.
func (r *MediaRepo) UpsertMedia(source, sourceID, kind, title, creator string, releaseYear int, coverURL string) (*MediaItem, error) {
	row := r.db.QueryRow(`
		INSERT INTO media_items (source, source_id, kind, title, creator, release_year, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source, source_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			creator = EXCLUDED.creator,
			release_year = EXCLUDED.release_year,
			cover_url = EXCLUDED.cover_url,
			updated_at = NOW()
		RETURNING`+mediaColumns,
		source, sourceID, kind, title, nullIfEmpty(creator), nullIfZero(releaseYear), nullIfEmpty(coverURL))

	item, err := scanMedia(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert media item: %w", err)
	}

	return item, nil
}

func (r *MediaRepo) GetMedia(id string) (*MediaItem, error) {
	row := r.db.QueryRow(`SELECT`+mediaColumns+` FROM media_items WHERE id = $1`, id)

	item, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media item: %w", err)
	}

	return item, nil
}

func (r *MediaRepo) SearchMedia(kind, query string, limit, offset int) ([]MediaItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT`+mediaColumns+`
		FROM media_items
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = '' OR lower(title) LIKE '%' || lower($2) || '%')
		ORDER BY rating_count DESC, title
		LIMIT $3 OFFSET $4
	`, kind, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search media items: %w", err)
	}
	defer rows.Close()

	var items []MediaItem
	for rows.Next() {
		item, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media rows: %w", err)
	}

	return items, nil
}

func (r *MediaRepo) GetMediaCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM media_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get media count: %w", err)
	}
	return count, nil
}

func (r *MediaRepo) ListMediaIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT id FROM media_items")
	if err != nil {
		return nil, fmt.Errorf("failed to list media IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan media ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media IDs: %w", err)
	}

	return ids, nil
}

// ReplaceRatings overwrites the stored aggregates. Only the reconcile task
// should call this; request-path changes go through the review repository's
// transactional upsert.
func (r *MediaRepo) ReplaceRatings(mediaID string, ratings stats.Ratings, reviewCount int) error {
	_, err := r.db.Exec(`
		UPDATE media_items
		SET rating_count = $2, rating_sum = $3, rating_dist = $4, review_count = $5, updated_at = NOW()
		WHERE id = $1
	`, mediaID, ratings.Count, ratings.Sum, distArray(ratings), reviewCount)

	if err != nil {
		return fmt.Errorf("failed to replace ratings: %w", err)
	}

	return nil
}

func nullIfZero(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
