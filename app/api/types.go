package api

import (
	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/database"
	"github.com/jornt/medialog/app/lexicon"
)

// Record collections managed by this application
const (
	NSIDCollection = "app.medialog.collection"
	NSIDItem       = "app.medialog.item"
	NSIDReview     = "app.medialog.review"
	NSIDComment    = "app.medialog.comment"
	NSIDReaction   = "app.medialog.reaction"
)

type Handler struct {
	userRepo     database.UserRepository
	sessionRepo  database.SessionRepository
	mediaRepo    database.MediaRepository
	reviewRepo   database.ReviewRepository
	tagRepo      database.TagRepository
	shareRepo    database.ShareRepository
	feedbackRepo database.FeedbackRepository
	feedRepo     database.FeedRepository

	atclient    atproto.ClientInterface
	lexicons    *lexicon.Cache
	cache       cache.CacheInterface
	authService *auth.Service
}

func NewHandler(userRepo database.UserRepository, sessionRepo database.SessionRepository,
	mediaRepo database.MediaRepository, reviewRepo database.ReviewRepository,
	tagRepo database.TagRepository, shareRepo database.ShareRepository,
	feedbackRepo database.FeedbackRepository, feedRepo database.FeedRepository,
	atclient atproto.ClientInterface, lexicons *lexicon.Cache,
	responseCache cache.CacheInterface, authService *auth.Service) *Handler {
	return &Handler{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		mediaRepo:    mediaRepo,
		reviewRepo:   reviewRepo,
		tagRepo:      tagRepo,
		shareRepo:    shareRepo,
		feedbackRepo: feedbackRepo,
		feedRepo:     feedRepo,
		atclient:     atclient,
		lexicons:     lexicons,
		cache:        responseCache,
		authService:  authService,
	}
}

// Request bodies

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type collectionRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=2000"`
	Visibility  string `json:"visibility" binding:"omitempty,oneof=public unlisted private"`
}

type itemRequest struct {
	MediaID string `json:"media_id" binding:"required,uuid"`
	Note    string `json:"note" binding:"max=2000"`
	Status  string `json:"status" binding:"omitempty,oneof=planned active finished dropped"`
}

type reviewRequest struct {
	MediaID  string `json:"media_id" binding:"required,uuid"`
	Rating   int    `json:"rating" binding:"required,min=1,max=10"`
	Text     string `json:"text" binding:"max=10000"`
	Spoilers bool   `json:"spoilers"`
}

type reviewUpdateRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=10"`
	Text     string `json:"text" binding:"max=10000"`
	Spoilers bool   `json:"spoilers"`
}

type commentRequest struct {
	Subject string `json:"subject" binding:"required"`
	Text    string `json:"text" binding:"required,max=4000"`
}

type reactionRequest struct {
	Subject string `json:"subject" binding:"required"`
}

type reactionDeleteRequest struct {
	Subject string `json:"subject" binding:"required"`
	RKey    string `json:"rkey" binding:"required"`
}

type mediaRequest struct {
	Source      string `json:"source" binding:"required,max=60"`
	SourceID    string `json:"source_id" binding:"required,max=200"`
	Kind        string `json:"kind" binding:"required,oneof=book movie tv music game"`
	Title       string `json:"title" binding:"required,max=300"`
	Creator     string `json:"creator" binding:"max=300"`
	ReleaseYear int    `json:"release_year" binding:"omitempty,min=1000,max=3000"`
	CoverURL    string `json:"cover_url" binding:"omitempty,url"`
}

type tagRequest struct {
	Name string `json:"name" binding:"required,max=80"`
}

type mediaTagRequest struct {
	TagID string `json:"tag_id" binding:"required,uuid"`
}

type shareRequest struct {
	SubjectURI string `json:"subject_uri" binding:"required"`
	TTLSeconds int    `json:"ttl_seconds" binding:"omitempty,min=60"`
}

type feedbackRequest struct {
	Category string `json:"category" binding:"required,oneof=bug idea praise other"`
	Message  string `json:"message" binding:"required,max=8000"`
}
