// Package client is a command-line client for the storefront API that keeps
// its session token in a local JSON file.
package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// DefaultSessionFile is where the session is persisted between runs.
const DefaultSessionFile = "session.json"

// SessionStore persists the session token and the signed-in email.
type SessionStore struct {
	Token string `json:"token"`
	Email string `json:"email,omitempty"`

	path string
	mu   sync.Mutex
}

// NewSessionStore creates a store backed by path.
func NewSessionStore(path string) *SessionStore {
	if path == "" {
		path = DefaultSessionFile
	}
	return &SessionStore{path: path}
}

// Load reads the session file. A missing file means no session.
func (s *SessionStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.Token, s.Email = "", ""
			return nil
		}
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(s)
}

// Save writes the session file, readable by the owner only.
func (s *SessionStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(s)
}

// Set replaces the session and persists it.
func (s *SessionStore) Set(token, email string) error {
	s.mu.Lock()
	s.Token, s.Email = token, email
	s.mu.Unlock()
	return s.Save()
}

// Clear forgets the session and persists the change.
func (s *SessionStore) Clear() error {
	return s.Set("", "")
}

// Current returns the stored token.
func (s *SessionStore) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Token
}
