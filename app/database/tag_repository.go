package database

import (
	"database/sql"
	"fmt"
)

var _ TagRepository = (*TagRepo)(nil)

// TagRepo handles database operations for user tags. Tags are server-only
// data; they never leave the local database.
type TagRepo struct {
	db *DB
}

func NewTagRepository(db *DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) CreateTag(did, name, slug string) (*Tag, error) {
	var tag Tag
	err := r.db.QueryRow(`
		INSERT INTO tags (did, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (did, slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, did, name, slug, created_at
	`, did, name, slug).Scan(&tag.ID, &tag.DID, &tag.Name, &tag.Slug, &tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return &tag, nil
}

func (r *TagRepo) GetTagBySlug(did, slug string) (*Tag, error) {
	var tag Tag
	err := r.db.QueryRow(`
		SELECT t.id, t.did, t.name, t.slug, t.created_at,
		       (SELECT COUNT(*) FROM media_tags mt WHERE mt.tag_id = t.id)
		FROM tags t
		WHERE t.did = $1 AND t.slug = $2
	`, did, slug).Scan(&tag.ID, &tag.DID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.MediaCount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &tag, nil
}

func (r *TagRepo) ListTags(did string) ([]Tag, error) {
	rows, err := r.db.Query(`
		SELECT t.id, t.did, t.name, t.slug, t.created_at,
		       (SELECT COUNT(*) FROM media_tags mt WHERE mt.tag_id = t.id)
		FROM tags t
		WHERE t.did = $1
		ORDER BY t.name
	`, did)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		err := rows.Scan(&tag.ID, &tag.DID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.MediaCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return tags, nil
}

// DeleteTag removes a tag owned by the given DID. Returns false when no row
// matched, so handlers can distinguish not-found from success.
func (r *TagRepo) DeleteTag(id, did string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM tags WHERE id = $1 AND did = $2", id, did)
	if err != nil {
		return false, fmt.Errorf("failed to delete tag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}

// AddMediaTag attaches a media item to one of the caller's tags. The insert
// is scoped to tags owned by the DID, so tagging through someone else's tag
// ID is reported as not found.
func (r *TagRepo) AddMediaTag(did, tagID, mediaID string) (bool, error) {
	var owned bool
	err := r.db.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM tags WHERE id = $1 AND did = $2)", tagID, did,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to check tag owner: %w", err)
	}
	if !owned {
		return false, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO media_tags (tag_id, media_id)
		VALUES ($1, $2)
		ON CONFLICT (tag_id, media_id) DO NOTHING
	`, tagID, mediaID)

	if err != nil {
		return false, fmt.Errorf("failed to add media tag: %w", err)
	}

	return true, nil
}

func (r *TagRepo) RemoveMediaTag(did, tagID, mediaID string) (bool, error) {
	var owned bool
	err := r.db.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM tags WHERE id = $1 AND did = $2)", tagID, did,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to check tag owner: %w", err)
	}
	if !owned {
		return false, nil
	}

	_, err = r.db.Exec("DELETE FROM media_tags WHERE tag_id = $1 AND media_id = $2", tagID, mediaID)
	if err != nil {
		return false, fmt.Errorf("failed to remove media tag: %w", err)
	}
	return true, nil
}

func (r *TagRepo) ListTagsForMedia(did, mediaID string) ([]Tag, error) {
	rows, err := r.db.Query(`
		SELECT t.id, t.did, t.name, t.slug, t.created_at,
		       (SELECT COUNT(*) FROM media_tags mt2 WHERE mt2.tag_id = t.id)
		FROM tags t
		JOIN media_tags mt ON mt.tag_id = t.id
		WHERE t.did = $1 AND mt.media_id = $2
		ORDER BY t.name
	`, did, mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for media: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		err := rows.Scan(&tag.ID, &tag.DID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.MediaCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return tags, nil
}

func (r *TagRepo) ListMediaForTag(did, slug string, limit int) ([]MediaItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT`+mediaColumns+`
		FROM media_items
		WHERE id IN (
			SELECT mt.media_id
			FROM media_tags mt
			JOIN tags t ON t.id = mt.tag_id
			WHERE t.did = $1 AND t.slug = $2
		)
		ORDER BY title
		LIMIT $3
	`, did, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list media for tag: %w", err)
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
