package database

import (
	"encoding/json"
	"time"

	"github.com/jornt/medialog/app/stats"
)

type User struct {
	DID         string
	Handle      string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Session struct {
	ID              string // Database UUID
	DID             string
	PDSUrl          string
	AccessJwt       string
	RefreshJwt      string
	AccessExpiresAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type MediaItem struct {
	ID          string // Database UUID
	Source      string // Catalog namespace, e.g. "openlibrary", "omdb"
	SourceID    string // Identifier within the source
	Kind        string // book, movie, tv, music, game
	Title       string
	Creator     string
	ReleaseYear int
	CoverURL    string
	Ratings     stats.Ratings
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Review struct {
	ID        string // Database UUID
	URI       string // at:// URI of the canonical record
	DID       string
	MediaID   string
	Rating    int
	Body      string
	LikeCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Tag struct {
	ID         string // Database UUID
	DID        string
	Name       string
	Slug       string
	MediaCount int // Derived from media_tags, not stored
	CreatedAt  time.Time
}

type ShareLink struct {
	ID         string // Database UUID
	Token      string
	DID        string
	SubjectURI string // at:// URI or media:<id>
	ExpiresAt  *time.Time
	VisitCount int
	CreatedAt  time.Time
}

type Feedback struct {
	ID        string // Database UUID
	DID       string // Empty for anonymous feedback
	Category  string
	Message   string
	CreatedAt time.Time
}

type FeedEvent struct {
	ID         string // Database UUID
	DID        string
	EventType  string // review.created, review.updated, review.deleted, comment.created, reaction.created, item.added
	SubjectURI string
	MediaID    string // Empty when the event has no media subject
	Payload    json.RawMessage
	CreatedAt  time.Time
}
