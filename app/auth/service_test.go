package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/database"
)

type stubClient struct {
	session      *atproto.Session
	pdsEndpoint  string
	resolveErr   error
	sessionError error
}

func (c *stubClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	return c.session.DID, nil
}

func (c *stubClient) ResolveDIDDocument(ctx context.Context, did string) (string, error) {
	if c.resolveErr != nil {
		return "", c.resolveErr
	}
	return c.pdsEndpoint, nil
}

func (c *stubClient) CreateSession(ctx context.Context, identifier, password string) (*atproto.Session, error) {
	if c.sessionError != nil {
		return nil, c.sessionError
	}
	return c.session, nil
}

func (c *stubClient) RefreshSession(ctx context.Context, refreshJwt string) (*atproto.Session, error) {
	return c.session, nil
}

func (c *stubClient) CreateRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*atproto.Record, error) {
	return nil, errors.New("not implemented")
}

func (c *stubClient) PutRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*atproto.Record, error) {
	return nil, errors.New("not implemented")
}

func (c *stubClient) DeleteRecord(ctx context.Context, accessJwt, did, collection, rkey string) error {
	return errors.New("not implemented")
}

func (c *stubClient) GetRecord(ctx context.Context, did, collection, rkey string) (*atproto.Record, error) {
	return nil, errors.New("not implemented")
}

func (c *stubClient) ListRecords(ctx context.Context, did, collection, cursor string, limit int) (*atproto.RecordList, error) {
	return nil, errors.New("not implemented")
}

type stubSessionRepo struct {
	created *database.Session
}

func (r *stubSessionRepo) CreateSession(did, pdsURL, accessJwt, refreshJwt string, accessExpiresAt time.Time) (*database.Session, error) {
	r.created = &database.Session{
		ID:              "session-1",
		DID:             did,
		PDSUrl:          pdsURL,
		AccessJwt:       accessJwt,
		RefreshJwt:      refreshJwt,
		AccessExpiresAt: accessExpiresAt,
	}
	return r.created, nil
}

func (r *stubSessionRepo) GetSession(id string) (*database.Session, error) {
	return r.created, nil
}

func (r *stubSessionRepo) UpdateSessionTokens(id, accessJwt, refreshJwt string, accessExpiresAt time.Time) error {
	return nil
}

func (r *stubSessionRepo) DeleteSession(id string) error { return nil }

func (r *stubSessionRepo) GetSessionsExpiringBefore(cutoff time.Time, limit int) ([]database.Session, error) {
	return nil, nil
}

func (r *stubSessionRepo) GetSessionCount() (int, error) { return 0, nil }

type stubUserRepo struct{}

func (r *stubUserRepo) UpsertUser(did, handle, displayName, avatarURL string) (*database.User, error) {
	return &database.User{DID: did, Handle: handle}, nil
}

func (r *stubUserRepo) GetUser(did string) (*database.User, error) { return nil, nil }

func (r *stubUserRepo) GetUserCount() (int, error) { return 0, nil }

func newTestService(client atproto.ClientInterface, sessionRepo database.SessionRepository) *Service {
	return &Service{
		client:      client,
		sessionRepo: sessionRepo,
		userRepo:    &stubUserRepo{},
		jwtSecret:   "test-secret",
		sessionTTL:  time.Hour,
		pdsURL:      "https://pds.default.example.com",
	}
}

func TestService_Login_StoresResolvedPDS(t *testing.T) {
	client := &stubClient{
		session: &atproto.Session{
			DID:        "did:plc:alice",
			Handle:     "alice.example.com",
			AccessJwt:  "access",
			RefreshJwt: "refresh",
		},
		pdsEndpoint: "https://pds.alice.example.com",
	}
	sessionRepo := &stubSessionRepo{}
	service := newTestService(client, sessionRepo)

	result, err := service.Login(context.Background(), "alice.example.com", "app-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.Token == "" {
		t.Error("Expected a non-empty API token")
	}
	if sessionRepo.created == nil {
		t.Fatal("Expected a session to be stored")
	}
	if sessionRepo.created.PDSUrl != "https://pds.alice.example.com" {
		t.Errorf("Expected session to store the resolved PDS, got '%s'", sessionRepo.created.PDSUrl)
	}
}

func TestService_Login_FallsBackToConfiguredPDS(t *testing.T) {
	client := &stubClient{
		session: &atproto.Session{
			DID:        "did:plc:alice",
			Handle:     "alice.example.com",
			AccessJwt:  "access",
			RefreshJwt: "refresh",
		},
		resolveErr: errors.New("directory unavailable"),
	}
	sessionRepo := &stubSessionRepo{}
	service := newTestService(client, sessionRepo)

	if _, err := service.Login(context.Background(), "alice.example.com", "app-password"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if sessionRepo.created.PDSUrl != "https://pds.default.example.com" {
		t.Errorf("Expected fallback to configured PDS, got '%s'", sessionRepo.created.PDSUrl)
	}
}

func TestService_Login_PDSRejection(t *testing.T) {
	client := &stubClient{sessionError: errors.New("invalid credentials")}
	service := newTestService(client, &stubSessionRepo{})

	if _, err := service.Login(context.Background(), "alice.example.com", "wrong"); err == nil {
		t.Error("Expected error when the PDS rejects the credentials")
	}
}
