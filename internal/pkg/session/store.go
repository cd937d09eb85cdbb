package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

// Store keeps the signed-in user and their bearer token in a local JSON
// file, surviving client restarts the way the browser frontend keeps
// them in localStorage. It never refreshes a token; once expired the
// user must sign in again.
type Store struct {
	path string

	mu    sync.RWMutex
	state state
}

type state struct {
	Token       string     `json:"token,omitempty"`
	CurrentUser *user.User `json:"currentUser,omitempty"`
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// A corrupt session file is treated as signed out.
		s.state = state{}
	}
	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// SetSession stores the token and user after a successful sign-in.
func (s *Store) SetSession(token string, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	s.state.CurrentUser = &u
	return s.save()
}

// Clear signs the user out locally.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state{}
	return s.save()
}

// Token returns the stored bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// CurrentUser returns the signed-in user, or nil.
func (s *Store) CurrentUser() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CurrentUser == nil {
		return nil
	}
	u := *s.state.CurrentUser
	return &u
}

// IsAuthenticated reports whether a token is present. It does not prove
// the token is still accepted by the backend.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Expired inspects the stored token's exp claim without verifying the
// signature (the backend is the verifier; the client only wants to know
// whether a sign-in prompt is pointless to skip).
func (s *Store) Expired(now time.Time) bool {
	token := s.Token()
	if token == "" {
		return true
	}
	parsed, err := jwt.Parse([]byte(token), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return true
	}
	exp := parsed.Expiration()
	if exp.IsZero() {
		return false
	}
	return now.After(exp)
}
