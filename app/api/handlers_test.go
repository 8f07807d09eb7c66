package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/database"
	"github.com/jornt/medialog/app/lexicon"
)

const testDID = "did:plc:alice"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	handler  *Handler
	users    *MockUserRepository
	media    *MockMediaRepository
	reviews  *MockReviewRepository
	tags     *MockTagRepository
	shares   *MockShareRepository
	feedback *MockFeedbackRepository
	feed     *MockFeedRepository
	client   *MockATClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lexicons := lexicon.NewCache("../../lexicons")
	if err := lexicons.Run(); err != nil {
		t.Fatalf("Failed to load record definitions: %v", err)
	}
	if lexicons.GetDefinitionCount() == 0 {
		t.Fatal("No record definitions loaded")
	}

	f := &fixture{
		users:    NewMockUserRepository(),
		media:    NewMockMediaRepository(),
		tags:     NewMockTagRepository(),
		shares:   NewMockShareRepository(),
		feedback: &MockFeedbackRepository{},
		feed:     &MockFeedRepository{},
		client:   NewMockATClient(),
	}
	f.reviews = NewMockReviewRepository(f.media)

	f.handler = NewHandler(f.users, NewMockSessionRepository(), f.media, f.reviews,
		f.tags, f.shares, f.feedback, f.feed,
		f.client, lexicons, cache.NewNoop(), nil)

	return f
}

// authInject stands in for the session middleware in handler tests.
func authInject(did string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextDID, did)
		c.Set(auth.ContextSession, &database.Session{
			ID:        "session-1",
			DID:       did,
			AccessJwt: "access-jwt",
		})
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "Frank Herbert", 1965, "")

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"`+media.ID+`","rating":9,"text":"A classic"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	if media.Ratings.Count != 1 || media.Ratings.Sum != 9 {
		t.Errorf("Expected aggregates count 1 sum 9, got count %d sum %d", media.Ratings.Count, media.Ratings.Sum)
	}
	if media.ReviewCount != 1 {
		t.Errorf("Expected review count 1, got %d", media.ReviewCount)
	}
	if len(f.client.records) != 1 {
		t.Errorf("Expected 1 PDS record, got %d", len(f.client.records))
	}
	if len(f.feed.events) != 1 || f.feed.events[0].EventType != "review.created" {
		t.Errorf("Expected review.created feed event, got %v", f.feed.events)
	}
}

func TestCreateReview_Duplicate(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"`+media.ID+`","rating":9}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("First review failed: %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, "POST", "/reviews", `{"media_id":"`+media.ID+`","rating":7}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409 for second review, got %d: %s", w.Code, w.Body.String())
	}
	if rkey, ok := decodeBody(t, w)["rkey"].(string); !ok || rkey == "" {
		t.Error("Expected conflict response to carry the existing rkey")
	}

	if len(f.client.records) != 1 {
		t.Errorf("Expected 1 PDS record after duplicate attempt, got %d", len(f.client.records))
	}
	if media.Ratings.Count != 1 || media.Ratings.Sum != 9 {
		t.Errorf("Expected aggregates unchanged, got count %d sum %d", media.Ratings.Count, media.Ratings.Sum)
	}
}

func TestCreateReview_InvalidRating(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"11111111-1111-1111-1111-111111111111","rating":11}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for rating 11, got %d", w.Code)
	}
}

func TestCreateReview_MediaNotFound(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"11111111-1111-1111-1111-111111111111","rating":7}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown media, got %d", w.Code)
	}
}

func TestCreateReview_PDSFailure(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")
	f.client.failWrites = true

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"`+media.ID+`","rating":9}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502 when PDS is down, got %d", w.Code)
	}
	if media.Ratings.Count != 0 {
		t.Errorf("Expected no aggregate change after failed write, got count %d", media.Ratings.Count)
	}
}

func TestUpdateReview(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("omdb", "tt0133093", "movie", "The Matrix", "", 1999, "")

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)
	r.PUT("/reviews/:rkey", authInject(testDID), f.handler.UpdateReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"`+media.ID+`","rating":6}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d", w.Code)
	}
	rkey := decodeBody(t, w)["rkey"].(string)

	w = doRequest(r, "PUT", "/reviews/"+rkey, `{"rating":9,"text":"Better on rewatch"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if media.Ratings.Count != 1 || media.Ratings.Sum != 9 {
		t.Errorf("Expected aggregates count 1 sum 9 after update, got count %d sum %d", media.Ratings.Count, media.Ratings.Sum)
	}
	if media.Ratings.Dist[5] != 0 || media.Ratings.Dist[8] != 1 {
		t.Errorf("Expected rating to move from bucket 6 to bucket 9, got %v", media.Ratings.Dist)
	}
}

func TestDeleteReview(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("omdb", "tt0133093", "movie", "The Matrix", "", 1999, "")

	r := gin.New()
	r.POST("/reviews", authInject(testDID), f.handler.CreateReview)
	r.DELETE("/reviews/:rkey", authInject(testDID), f.handler.DeleteReview)

	w := doRequest(r, "POST", "/reviews", `{"media_id":"`+media.ID+`","rating":8}`)
	rkey := decodeBody(t, w)["rkey"].(string)

	w = doRequest(r, "DELETE", "/reviews/"+rkey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if media.Ratings.Count != 0 || media.Ratings.Sum != 0 {
		t.Errorf("Expected empty aggregates after delete, got count %d sum %d", media.Ratings.Count, media.Ratings.Sum)
	}
	if media.ReviewCount != 0 {
		t.Errorf("Expected review count 0, got %d", media.ReviewCount)
	}
	if len(f.client.records) != 0 {
		t.Errorf("Expected PDS record removed, %d remain", len(f.client.records))
	}
}

func TestDeleteReview_NotFound(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.DELETE("/reviews/:rkey", authInject(testDID), f.handler.DeleteReview)

	w := doRequest(r, "DELETE", "/reviews/3jzfcijpj2z2a", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetMedia(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("igdb", "1942", "game", "The Witcher 3", "", 2015, "")

	r := gin.New()
	r.GET("/media/:id", f.handler.GetMedia)

	w := doRequest(r, "GET", "/media/"+media.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["title"] != "The Witcher 3" {
		t.Errorf("Expected title 'The Witcher 3', got '%v'", body["title"])
	}
	if _, ok := body["stats"]; !ok {
		t.Error("Expected stats in media response")
	}
}

func TestGetMedia_NotFound(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.GET("/media/:id", f.handler.GetMedia)

	w := doRequest(r, "GET", "/media/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpsertMedia_Idempotent(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/media", authInject(testDID), f.handler.UpsertMedia)

	body := `{"source":"openlibrary","source_id":"OL123","kind":"book","title":"Dune"}`
	w := doRequest(r, "POST", "/media", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	firstID := decodeBody(t, w)["id"]

	w = doRequest(r, "POST", "/media", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if decodeBody(t, w)["id"] != firstID {
		t.Error("Expected same media ID for repeated upsert")
	}
}

func TestUpsertMedia_InvalidKind(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/media", authInject(testDID), f.handler.UpsertMedia)

	w := doRequest(r, "POST", "/media", `{"source":"x","source_id":"1","kind":"podcast","title":"Nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown kind, got %d", w.Code)
	}
}

func TestCreateCollectionAndItems(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")

	r := gin.New()
	group := r.Group("", authInject(testDID))
	group.POST("/collections", f.handler.CreateCollection)
	group.GET("/collections", f.handler.ListCollections)
	group.POST("/collections/:rkey/items", f.handler.AddCollectionItem)
	group.GET("/collections/:rkey/items", f.handler.ListCollectionItems)

	w := doRequest(r, "POST", "/collections", `{"name":"To Read","visibility":"public"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	rkey := decodeBody(t, w)["rkey"].(string)

	w = doRequest(r, "POST", "/collections/"+rkey+"/items", `{"media_id":"`+media.ID+`","status":"planned"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 adding item, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, "GET", "/collections/"+rkey+"/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 listing items, got %d", w.Code)
	}
	items := decodeBody(t, w)["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 item in collection, got %d", len(items))
	}

	w = doRequest(r, "GET", "/collections", "")
	collections := decodeBody(t, w)["collections"].([]interface{})
	if len(collections) != 1 {
		t.Errorf("Expected 1 collection, got %d", len(collections))
	}
}

func TestCreateComment_InvalidSubject(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/comments", authInject(testDID), f.handler.CreateComment)

	w := doRequest(r, "POST", "/comments", `{"subject":"https://example.com/post","text":"hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-at:// subject, got %d", w.Code)
	}
}

func TestReactionAdjustsLikeCount(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")
	review, err := f.reviews.UpsertReview("at://did:plc:bob/app.medialog.review/3jzfcijpj2z2a",
		"did:plc:bob", media.ID, 8, "")
	if err != nil {
		t.Fatalf("Failed to seed review: %v", err)
	}

	r := gin.New()
	r.PUT("/reactions", authInject(testDID), f.handler.CreateReaction)
	r.DELETE("/reactions", authInject(testDID), f.handler.DeleteReaction)

	w := doRequest(r, "PUT", "/reactions", `{"subject":"`+review.URI+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if review.LikeCount != 1 {
		t.Errorf("Expected like count 1, got %d", review.LikeCount)
	}
	rkey := decodeBody(t, w)["rkey"].(string)

	w = doRequest(r, "DELETE", "/reactions", `{"subject":"`+review.URI+`","rkey":"`+rkey+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if review.LikeCount != 0 {
		t.Errorf("Expected like count 0 after unlike, got %d", review.LikeCount)
	}
}

func TestCreateTag(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/tags", authInject(testDID), f.handler.CreateTag)

	w := doRequest(r, "POST", "/tags", `{"name":"Space Opera!"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["slug"] != "space-opera" {
		t.Errorf("Expected slug 'space-opera', got '%v'", body["slug"])
	}
}

func TestAddMediaTag_OtherUsersTag(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")
	tag, _ := f.tags.CreateTag("did:plc:bob", "Favorites", "favorites")

	r := gin.New()
	r.POST("/media/:id/tags", authInject(testDID), f.handler.AddMediaTag)

	w := doRequest(r, "POST", "/media/"+media.ID+"/tags", `{"tag_id":"`+tag.ID+`"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for someone else's tag, got %d", w.Code)
	}
	if len(f.tags.mediaTags[tag.ID]) != 0 {
		t.Errorf("Expected no assignment through someone else's tag, got %v", f.tags.mediaTags[tag.ID])
	}
}

func TestAddAndRemoveMediaTag(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")
	tag, _ := f.tags.CreateTag(testDID, "Favorites", "favorites")

	r := gin.New()
	r.POST("/media/:id/tags", authInject(testDID), f.handler.AddMediaTag)
	r.DELETE("/media/:id/tags/:tagId", authInject(testDID), f.handler.RemoveMediaTag)

	w := doRequest(r, "POST", "/media/"+media.ID+"/tags", `{"tag_id":"`+tag.ID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(f.tags.mediaTags[tag.ID]) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(f.tags.mediaTags[tag.ID]))
	}

	w = doRequest(r, "DELETE", "/media/"+media.ID+"/tags/"+tag.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(f.tags.mediaTags[tag.ID]) != 0 {
		t.Errorf("Expected assignment removed, got %v", f.tags.mediaTags[tag.ID])
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Space Opera", "space-opera"},
		{"  Sci-Fi  ", "sci-fi"},
		{"ALL CAPS", "all-caps"},
		{"many---dashes", "many-dashes"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := slugify(tt.input); got != tt.expected {
			t.Errorf("slugify(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestResolveShare(t *testing.T) {
	f := newFixture(t)
	f.shares.CreateShare(testDID, "token-1", "media:media-1", nil)

	r := gin.New()
	r.GET("/s/:token", f.handler.ResolveShare)

	w := doRequest(r, "GET", "/s/token-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["subject_uri"] != "media:media-1" {
		t.Errorf("Expected subject 'media:media-1', got '%v'", body["subject_uri"])
	}
	if f.shares.visits["token-1"] != 1 {
		t.Errorf("Expected 1 visit recorded, got %d", f.shares.visits["token-1"])
	}
}

func TestResolveShare_Expired(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	f.shares.CreateShare(testDID, "token-1", "media:media-1", &past)

	r := gin.New()
	r.GET("/s/:token", f.handler.ResolveShare)

	w := doRequest(r, "GET", "/s/token-1", "")
	if w.Code != http.StatusGone {
		t.Errorf("Expected status 410 for expired link, got %d", w.Code)
	}
}

func TestResolveShare_NotFound(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.GET("/s/:token", f.handler.ResolveShare)

	w := doRequest(r, "GET", "/s/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateFeedback_Anonymous(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.POST("/feedback", f.handler.CreateFeedback)

	w := doRequest(r, "POST", "/feedback", `{"category":"bug","message":"The page is blank"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	if len(f.feedback.entries) != 1 {
		t.Fatalf("Expected 1 feedback entry, got %d", len(f.feedback.entries))
	}
	if f.feedback.entries[0].DID != "" {
		t.Errorf("Expected empty DID for anonymous feedback, got '%s'", f.feedback.entries[0].DID)
	}
}

func TestGetFeed_InvalidBefore(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.GET("/feed", f.handler.GetFeed)

	w := doRequest(r, "GET", "/feed?before=yesterday", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid timestamp, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	f := newFixture(t)

	r := gin.New()
	r.GET("/health", f.handler.GetHealth)

	w := doRequest(r, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["loaded_definitions"].(float64) < 5 {
		t.Errorf("Expected at least 5 loaded definitions, got %v", body["loaded_definitions"])
	}
}

func TestListMediaReviews(t *testing.T) {
	f := newFixture(t)
	media, _ := f.media.UpsertMedia("openlibrary", "OL123", "book", "Dune", "", 0, "")
	f.reviews.UpsertReview("at://did:plc:bob/app.medialog.review/3jzfcijpj2z2a",
		"did:plc:bob", media.ID, 8, "Great")

	r := gin.New()
	r.GET("/media/:id/reviews", f.handler.ListMediaReviews)

	w := doRequest(r, "GET", "/media/"+media.ID+"/reviews", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	reviews := decodeBody(t, w)["reviews"].([]interface{})
	if len(reviews) != 1 {
		t.Errorf("Expected 1 review, got %d", len(reviews))
	}
}
