package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"workhub-agent/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("no session credentials")

// Session is the persisted shape of the credential file.
type Session struct {
	Token          string `json:"token"`
	DisplayName    string `json:"displayName"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID *int64 `json:"organizationId,omitempty"`
}

// CredentialStore holds the session identity and bearer token. It is read-only
// for the rest of the agent except for Wipe, which handles the global 401 path.
type CredentialStore struct {
	path string

	mu      sync.RWMutex
	session *Session
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Load reads the credential file. Returns ErrNoSession when it does not exist.
func (s *CredentialStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("parse credentials: %w", err)
	}
	if session.Token == "" || session.DisplayName == "" {
		return ErrNoSession
	}

	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	return nil
}

func (s *CredentialStore) Identity() (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return models.Identity{}, ErrNoSession
	}
	return models.Identity{
		DisplayName:    s.session.DisplayName,
		Email:          s.session.Email,
		Role:           s.session.Role,
		OrganizationID: s.session.OrganizationID,
	}, nil
}

func (s *CredentialStore) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return "", ErrNoSession
	}
	return s.session.Token, nil
}

// Wipe removes the credential file and the in-memory copy. Called on any 401;
// the agent cannot recover the session locally after that.
func (s *CredentialStore) Wipe() error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// TokenExpiresAt inspects the bearer token's exp claim without verifying the
// signature; verification is the server's job.
func (s *CredentialStore) TokenExpiresAt() (time.Time, error) {
	token, err := s.Token()
	if err != nil {
		return time.Time{}, err
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}
