package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/database"
	"github.com/jornt/medialog/app/stats"
)

// MockUserRepository implements a simple mock for testing
type MockUserRepository struct {
	users map[string]*database.User
}

var _ database.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*database.User)}
}

func (m *MockUserRepository) UpsertUser(did, handle, displayName, avatarURL string) (*database.User, error) {
	user := &database.User{DID: did, Handle: handle, DisplayName: displayName, AvatarURL: avatarURL}
	m.users[did] = user
	return user, nil
}

func (m *MockUserRepository) GetUser(did string) (*database.User, error) {
	return m.users[did], nil
}

func (m *MockUserRepository) GetUserCount() (int, error) {
	return len(m.users), nil
}

// MockSessionRepository implements a simple mock for testing
type MockSessionRepository struct {
	sessions map[string]*database.Session
}

var _ database.SessionRepository = (*MockSessionRepository)(nil)

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*database.Session)}
}

func (m *MockSessionRepository) CreateSession(did, pdsURL, accessJwt, refreshJwt string, accessExpiresAt time.Time) (*database.Session, error) {
	session := &database.Session{
		ID:              fmt.Sprintf("session-%d", len(m.sessions)+1),
		DID:             did,
		PDSUrl:          pdsURL,
		AccessJwt:       accessJwt,
		RefreshJwt:      refreshJwt,
		AccessExpiresAt: accessExpiresAt,
	}
	m.sessions[session.ID] = session
	return session, nil
}

func (m *MockSessionRepository) GetSession(id string) (*database.Session, error) {
	return m.sessions[id], nil
}

func (m *MockSessionRepository) UpdateSessionTokens(id, accessJwt, refreshJwt string, accessExpiresAt time.Time) error {
	return nil
}

func (m *MockSessionRepository) DeleteSession(id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionRepository) GetSessionsExpiringBefore(cutoff time.Time, limit int) ([]database.Session, error) {
	return nil, nil
}

func (m *MockSessionRepository) GetSessionCount() (int, error) {
	return len(m.sessions), nil
}

// MockMediaRepository implements a simple mock for testing
type MockMediaRepository struct {
	media map[string]*database.MediaItem
}

var _ database.MediaRepository = (*MockMediaRepository)(nil)

func NewMockMediaRepository() *MockMediaRepository {
	return &MockMediaRepository{media: make(map[string]*database.MediaItem)}
}

func (m *MockMediaRepository) UpsertMedia(source, sourceID, kind, title, creator string, releaseYear int, coverURL string) (*database.MediaItem, error) {
	for _, item := range m.media {
		if item.Source == source && item.SourceID == sourceID {
			return item, nil
		}
	}
	item := &database.MediaItem{
		ID:          uuid.NewString(),
		Source:      source,
		SourceID:    sourceID,
		Kind:        kind,
		Title:       title,
		Creator:     creator,
		ReleaseYear: releaseYear,
		CoverURL:    coverURL,
	}
	m.media[item.ID] = item
	return item, nil
}

func (m *MockMediaRepository) GetMedia(id string) (*database.MediaItem, error) {
	return m.media[id], nil
}

func (m *MockMediaRepository) SearchMedia(kind, query string, limit, offset int) ([]database.MediaItem, error) {
	var items []database.MediaItem
	for _, item := range m.media {
		if kind != "" && item.Kind != kind {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(query)) {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

func (m *MockMediaRepository) GetMediaCount() (int, error) {
	return len(m.media), nil
}

func (m *MockMediaRepository) ListMediaIDs() ([]string, error) {
	return nil, nil
}

func (m *MockMediaRepository) ReplaceRatings(mediaID string, ratings stats.Ratings, reviewCount int) error {
	return nil
}

// MockReviewRepository implements a simple mock for testing. Aggregates are
// applied the same way the real repository does, minus the transaction.
type MockReviewRepository struct {
	reviews map[string]*database.Review
	media   *MockMediaRepository
}

var _ database.ReviewRepository = (*MockReviewRepository)(nil)

func NewMockReviewRepository(media *MockMediaRepository) *MockReviewRepository {
	return &MockReviewRepository{reviews: make(map[string]*database.Review), media: media}
}

func (m *MockReviewRepository) GetReviewByURI(uri string) (*database.Review, error) {
	return m.reviews[uri], nil
}

func (m *MockReviewRepository) GetReviewForMedia(did, mediaID string) (*database.Review, error) {
	for _, review := range m.reviews {
		if review.DID == did && review.MediaID == mediaID {
			return review, nil
		}
	}
	return nil, nil
}

func (m *MockReviewRepository) ListReviewsForMedia(mediaID string, limit, offset int) ([]database.Review, error) {
	var reviews []database.Review
	for _, review := range m.reviews {
		if review.MediaID == mediaID {
			reviews = append(reviews, *review)
		}
	}
	return reviews, nil
}

func (m *MockReviewRepository) ListRatingsForMedia(mediaID string) ([]int, error) {
	return nil, nil
}

func (m *MockReviewRepository) UpsertReview(uri, did, mediaID string, rating int, body string) (*database.Review, error) {
	item := m.media.media[mediaID]

	var oldRating *int
	if existing, ok := m.reviews[uri]; ok {
		r := existing.Rating
		oldRating = &r
	} else if item != nil {
		item.ReviewCount++
	}

	if item != nil {
		if err := item.Ratings.Apply(oldRating, &rating); err != nil {
			return nil, err
		}
	}

	review := &database.Review{
		URI:       uri,
		DID:       did,
		MediaID:   mediaID,
		Rating:    rating,
		Body:      body,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.reviews[uri] = review
	return review, nil
}

func (m *MockReviewRepository) DeleteReview(uri string) error {
	review, ok := m.reviews[uri]
	if !ok {
		return nil
	}
	if item := m.media.media[review.MediaID]; item != nil {
		if err := item.Ratings.Apply(&review.Rating, nil); err != nil {
			return err
		}
		item.ReviewCount--
	}
	delete(m.reviews, uri)
	return nil
}

func (m *MockReviewRepository) AdjustLikeCount(uri string, delta int) error {
	if review, ok := m.reviews[uri]; ok {
		review.LikeCount += delta
		if review.LikeCount < 0 {
			review.LikeCount = 0
		}
	}
	return nil
}

func (m *MockReviewRepository) GetReviewCount() (int, error) {
	return len(m.reviews), nil
}

// MockTagRepository implements a simple mock for testing
type MockTagRepository struct {
	tags      map[string]*database.Tag
	mediaTags map[string][]string
}

var _ database.TagRepository = (*MockTagRepository)(nil)

func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{
		tags:      make(map[string]*database.Tag),
		mediaTags: make(map[string][]string),
	}
}

func (m *MockTagRepository) CreateTag(did, name, slug string) (*database.Tag, error) {
	for _, tag := range m.tags {
		if tag.DID == did && tag.Slug == slug {
			tag.Name = name
			return tag, nil
		}
	}
	tag := &database.Tag{
		ID:   uuid.NewString(),
		DID:  did,
		Name: name,
		Slug: slug,
	}
	m.tags[tag.ID] = tag
	return tag, nil
}

func (m *MockTagRepository) GetTagBySlug(did, slug string) (*database.Tag, error) {
	for _, tag := range m.tags {
		if tag.DID == did && tag.Slug == slug {
			return tag, nil
		}
	}
	return nil, nil
}

func (m *MockTagRepository) ListTags(did string) ([]database.Tag, error) {
	var tags []database.Tag
	for _, tag := range m.tags {
		if tag.DID == did {
			tags = append(tags, *tag)
		}
	}
	return tags, nil
}

func (m *MockTagRepository) DeleteTag(id, did string) (bool, error) {
	tag, ok := m.tags[id]
	if !ok || tag.DID != did {
		return false, nil
	}
	delete(m.tags, id)
	return true, nil
}

func (m *MockTagRepository) AddMediaTag(did, tagID, mediaID string) (bool, error) {
	tag, ok := m.tags[tagID]
	if !ok || tag.DID != did {
		return false, nil
	}
	m.mediaTags[tagID] = append(m.mediaTags[tagID], mediaID)
	return true, nil
}

func (m *MockTagRepository) RemoveMediaTag(did, tagID, mediaID string) (bool, error) {
	tag, ok := m.tags[tagID]
	if !ok || tag.DID != did {
		return false, nil
	}
	assigned := m.mediaTags[tagID]
	for i, id := range assigned {
		if id == mediaID {
			m.mediaTags[tagID] = append(assigned[:i], assigned[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MockTagRepository) ListMediaForTag(did, slug string, limit int) ([]database.MediaItem, error) {
	return nil, nil
}

func (m *MockTagRepository) ListTagsForMedia(did, mediaID string) ([]database.Tag, error) {
	return nil, nil
}

// MockShareRepository implements a simple mock for testing
type MockShareRepository struct {
	shares map[string]*database.ShareLink
	visits map[string]int
}

var _ database.ShareRepository = (*MockShareRepository)(nil)

func NewMockShareRepository() *MockShareRepository {
	return &MockShareRepository{
		shares: make(map[string]*database.ShareLink),
		visits: make(map[string]int),
	}
}

func (m *MockShareRepository) CreateShare(did, token, subjectURI string, expiresAt *time.Time) (*database.ShareLink, error) {
	share := &database.ShareLink{
		ID:         fmt.Sprintf("share-%d", len(m.shares)+1),
		Token:      token,
		DID:        did,
		SubjectURI: subjectURI,
		ExpiresAt:  expiresAt,
	}
	m.shares[token] = share
	return share, nil
}

func (m *MockShareRepository) GetShareByToken(token string) (*database.ShareLink, error) {
	return m.shares[token], nil
}

func (m *MockShareRepository) RecordVisit(token string) error {
	m.visits[token]++
	return nil
}

func (m *MockShareRepository) ListShares(did string) ([]database.ShareLink, error) {
	var shares []database.ShareLink
	for _, share := range m.shares {
		if share.DID == did {
			shares = append(shares, *share)
		}
	}
	return shares, nil
}

func (m *MockShareRepository) DeleteShare(id, did string) (bool, error) {
	for token, share := range m.shares {
		if share.ID == id && share.DID == did {
			delete(m.shares, token)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockShareRepository) DeleteExpired(now time.Time) (int64, error) {
	return 0, nil
}

// MockFeedbackRepository implements a simple mock for testing
type MockFeedbackRepository struct {
	entries []database.Feedback
}

var _ database.FeedbackRepository = (*MockFeedbackRepository)(nil)

func (m *MockFeedbackRepository) CreateFeedback(did, category, message string) (*database.Feedback, error) {
	entry := database.Feedback{
		ID:       fmt.Sprintf("feedback-%d", len(m.entries)+1),
		DID:      did,
		Category: category,
		Message:  message,
	}
	m.entries = append(m.entries, entry)
	return &entry, nil
}

func (m *MockFeedbackRepository) ListFeedback(limit, offset int) ([]database.Feedback, error) {
	return m.entries, nil
}

func (m *MockFeedbackRepository) GetFeedbackCount() (int, error) {
	return len(m.entries), nil
}

// MockFeedRepository implements a simple mock for testing
type MockFeedRepository struct {
	events []database.FeedEvent
}

var _ database.FeedRepository = (*MockFeedRepository)(nil)

func (m *MockFeedRepository) CreateEvent(event database.FeedEvent) error {
	event.ID = fmt.Sprintf("event-%d", len(m.events)+1)
	event.CreatedAt = time.Now()
	m.events = append(m.events, event)
	return nil
}

func (m *MockFeedRepository) ListRecent(limit int, before *time.Time) ([]database.FeedEvent, error) {
	return m.events, nil
}

func (m *MockFeedRepository) ListForDID(did string, limit int) ([]database.FeedEvent, error) {
	var events []database.FeedEvent
	for _, event := range m.events {
		if event.DID == did {
			events = append(events, event)
		}
	}
	return events, nil
}

func (m *MockFeedRepository) GetEventCount() (int, error) {
	return len(m.events), nil
}

// MockATClient records PDS writes for assertions
type MockATClient struct {
	records    map[string]*atproto.Record
	deletedKey string
	failWrites bool
}

var _ atproto.ClientInterface = (*MockATClient)(nil)

func NewMockATClient() *MockATClient {
	return &MockATClient{records: make(map[string]*atproto.Record)}
}

func (m *MockATClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	return "did:plc:alice", nil
}

func (m *MockATClient) ResolveDIDDocument(ctx context.Context, did string) (string, error) {
	return "https://pds.test.example.com", nil
}

func (m *MockATClient) CreateSession(ctx context.Context, identifier, password string) (*atproto.Session, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *MockATClient) RefreshSession(ctx context.Context, refreshJwt string) (*atproto.Session, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *MockATClient) CreateRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*atproto.Record, error) {
	if m.failWrites {
		return nil, fmt.Errorf("PDS unavailable")
	}
	record := &atproto.Record{
		URI:   atproto.BuildURI(did, collection, rkey),
		CID:   "bafytest",
		Value: value,
	}
	m.records[record.URI] = record
	return record, nil
}

func (m *MockATClient) PutRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*atproto.Record, error) {
	return m.CreateRecord(ctx, accessJwt, did, collection, rkey, value)
}

func (m *MockATClient) DeleteRecord(ctx context.Context, accessJwt, did, collection, rkey string) error {
	if m.failWrites {
		return fmt.Errorf("PDS unavailable")
	}
	m.deletedKey = rkey
	delete(m.records, atproto.BuildURI(did, collection, rkey))
	return nil
}

func (m *MockATClient) GetRecord(ctx context.Context, did, collection, rkey string) (*atproto.Record, error) {
	return m.records[atproto.BuildURI(did, collection, rkey)], nil
}

func (m *MockATClient) ListRecords(ctx context.Context, did, collection, cursor string, limit int) (*atproto.RecordList, error) {
	list := &atproto.RecordList{}
	for _, record := range m.records {
		recordDID, recordCollection, _, err := atproto.ParseURI(record.URI)
		if err != nil {
			continue
		}
		if recordDID == did && recordCollection == collection {
			list.Records = append(list.Records, *record)
		}
	}
	return list, nil
}
