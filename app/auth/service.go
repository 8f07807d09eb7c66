package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/cfg"
	"github.com/jornt/medialog/app/database"
)

// PDS access tokens are short-lived; assume this lifetime when the PDS does
// not say otherwise so the refresh task rotates them in time.
const accessTokenLifetime = 2 * time.Hour

// Service orchestrates login against the PDS and the local session store.
type Service struct {
	client      atproto.ClientInterface
	sessionRepo database.SessionRepository
	userRepo    database.UserRepository
	jwtSecret   string
	sessionTTL  time.Duration
	pdsURL      string
}

// LoginResult is returned to the API handler after a successful login.
type LoginResult struct {
	Token   string
	DID     string
	Handle  string
	Session *database.Session
}

func NewService(client atproto.ClientInterface, sessionRepo database.SessionRepository,
	userRepo database.UserRepository) *Service {
	c := cfg.Get()

	return &Service{
		client:      client,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		jwtSecret:   c.JWTSecret,
		sessionTTL:  time.Duration(c.SessionTTL) * time.Second,
		pdsURL:      c.PDSUrl,
	}
}

// Login authenticates the identifier against the PDS, persists the PDS
// session and issues an API token bound to it.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	pdsSession, err := s.client.CreateSession(ctx, identifier, password)
	if err != nil {
		return nil, fmt.Errorf("PDS authentication failed: %w", err)
	}

	if _, err := s.userRepo.UpsertUser(pdsSession.DID, pdsSession.Handle, "", ""); err != nil {
		return nil, fmt.Errorf("failed to cache user: %w", err)
	}

	session, err := s.sessionRepo.CreateSession(pdsSession.DID, s.resolvePDS(ctx, pdsSession.DID),
		pdsSession.AccessJwt, pdsSession.RefreshJwt, time.Now().Add(accessTokenLifetime))
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := IssueToken(s.jwtSecret, pdsSession.DID, session.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("Session created", "did", pdsSession.DID, "handle", pdsSession.Handle)

	return &LoginResult{
		Token:   token,
		DID:     pdsSession.DID,
		Handle:  pdsSession.Handle,
		Session: session,
	}, nil
}

// resolvePDS looks up the PDS endpoint in the user's DID document so the
// session row points at their actual host. Falls back to the configured PDS
// when the directory lookup fails.
func (s *Service) resolvePDS(ctx context.Context, did string) string {
	endpoint, err := s.client.ResolveDIDDocument(ctx, did)
	if err != nil || endpoint == "" {
		slog.Warn("Falling back to configured PDS", "did", did, "error", err)
		return s.pdsURL
	}
	return endpoint
}

// Refresh rotates the PDS tokens for a stored session and issues a fresh
// API token.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*LoginResult, error) {
	session, err := s.sessionRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}

	pdsSession, err := s.client.RefreshSession(ctx, session.RefreshJwt)
	if err != nil {
		return nil, fmt.Errorf("PDS refresh failed: %w", err)
	}

	err = s.sessionRepo.UpdateSessionTokens(session.ID, pdsSession.AccessJwt,
		pdsSession.RefreshJwt, time.Now().Add(accessTokenLifetime))
	if err != nil {
		return nil, fmt.Errorf("failed to update session tokens: %w", err)
	}

	token, err := IssueToken(s.jwtSecret, session.DID, session.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:   token,
		DID:     session.DID,
		Handle:  pdsSession.Handle,
		Session: session,
	}, nil
}

// Logout removes the stored session. The API token becomes useless once the
// session row is gone.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// VerifySession validates an API token and loads its backing session.
func (s *Service) VerifySession(tokenString string) (*Claims, *database.Session, error) {
	claims, err := VerifyToken(s.jwtSecret, tokenString)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessionRepo.GetSession(claims.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil, fmt.Errorf("session revoked")
	}
	if session.DID != claims.DID {
		return nil, nil, fmt.Errorf("session DID mismatch")
	}

	return claims, session, nil
}
