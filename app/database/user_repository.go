package database

import (
	"database/sql"
	"fmt"
)

var _ UserRepository = (*UserRepo)(nil)

// UserRepo handles database operations for cached user profiles
type UserRepo struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// UpsertUser inserts or refreshes the cached profile for a DID
func (r *UserRepo) UpsertUser(did, handle, displayName, avatarURL string) (*User, error) {
	var user User
	err := r.db.QueryRow(`
		INSERT INTO users (did, handle, display_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (did) DO UPDATE SET
			handle = EXCLUDED.handle,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING did, handle, COALESCE(display_name, ''), COALESCE(avatar_url, ''), created_at, updated_at
	`, did, handle, nullIfEmpty(displayName), nullIfEmpty(avatarURL)).Scan(
		&user.DID, &user.Handle, &user.DisplayName, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) GetUser(did string) (*User, error) {
	var user User
	err := r.db.QueryRow(`
		SELECT did, handle, COALESCE(display_name, ''), COALESCE(avatar_url, ''), created_at, updated_at
		FROM users
		WHERE did = $1
	`, did).Scan(
		&user.DID, &user.Handle, &user.DisplayName, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) GetUserCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
