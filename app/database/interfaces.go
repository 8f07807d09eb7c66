package database

import (
	"time"

	"github.com/jornt/medialog/app/stats"
)

type UserRepository interface {
	UpsertUser(did, handle, displayName, avatarURL string) (*User, error)
	GetUser(did string) (*User, error)
	GetUserCount() (int, error)
}

type SessionRepository interface {
	CreateSession(did, pdsURL, accessJwt, refreshJwt string, accessExpiresAt time.Time) (*Session, error)
	GetSession(id string) (*Session, error)
	UpdateSessionTokens(id, accessJwt, refreshJwt string, accessExpiresAt time.Time) error
	DeleteSession(id string) error
	GetSessionsExpiringBefore(cutoff time.Time, limit int) ([]Session, error)
	GetSessionCount() (int, error)
}

type MediaRepository interface {
	UpsertMedia(source, sourceID, kind, title, creator string, releaseYear int, coverURL string) (*MediaItem, error)
	GetMedia(id string) (*MediaItem, error)
	SearchMedia(kind, query string, limit, offset int) ([]MediaItem, error)
	GetMediaCount() (int, error)
	ListMediaIDs() ([]string, error)
	ReplaceRatings(mediaID string, ratings stats.Ratings, reviewCount int) error
}

type ReviewRepository interface {
	GetReviewByURI(uri string) (*Review, error)
	GetReviewForMedia(did, mediaID string) (*Review, error)
	ListReviewsForMedia(mediaID string, limit, offset int) ([]Review, error)
	ListRatingsForMedia(mediaID string) ([]int, error)

	// UpsertReview and DeleteReview adjust the media item's rating
	// aggregates in the same transaction as the review row change.
	UpsertReview(uri, did, mediaID string, rating int, body string) (*Review, error)
	DeleteReview(uri string) error

	AdjustLikeCount(uri string, delta int) error
	GetReviewCount() (int, error)
}

type TagRepository interface {
	CreateTag(did, name, slug string) (*Tag, error)
	GetTagBySlug(did, slug string) (*Tag, error)
	ListTags(did string) ([]Tag, error)
	DeleteTag(id, did string) (bool, error)
	// AddMediaTag and RemoveMediaTag only touch tags owned by the given
	// DID; false means the tag does not exist or belongs to someone else.
	AddMediaTag(did, tagID, mediaID string) (bool, error)
	RemoveMediaTag(did, tagID, mediaID string) (bool, error)
	ListMediaForTag(did, slug string, limit int) ([]MediaItem, error)
	ListTagsForMedia(did, mediaID string) ([]Tag, error)
}

type ShareRepository interface {
	CreateShare(did, token, subjectURI string, expiresAt *time.Time) (*ShareLink, error)
	GetShareByToken(token string) (*ShareLink, error)
	RecordVisit(token string) error
	ListShares(did string) ([]ShareLink, error)
	DeleteShare(id, did string) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

type FeedbackRepository interface {
	CreateFeedback(did, category, message string) (*Feedback, error)
	ListFeedback(limit, offset int) ([]Feedback, error)
	GetFeedbackCount() (int, error)
}

type FeedRepository interface {
	CreateEvent(event FeedEvent) error
	ListRecent(limit int, before *time.Time) ([]FeedEvent, error)
	ListForDID(did string, limit int) ([]FeedEvent, error)
	GetEventCount() (int, error)
}
