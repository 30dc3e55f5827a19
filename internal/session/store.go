// Package session persists the logged-in identity between runs. The store
// is a single JSON file; the entrypoint reads it to decide whether to show
// the auth flow or the main tabs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vinhng/zolaterm/internal/model"
)

// Session is the persisted login state.
type Session struct {
	User  model.UserProfile `json:"user"`
	Token string            `json:"token"`
}

// LoggedIn reports whether the session carries a usable identity.
func (s *Session) LoggedIn() bool {
	return s != nil && s.User.Username != "" && s.Token != ""
}

// Store reads and writes the session file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted session, or (nil, nil) when no session exists.
// A corrupt file is treated as no session rather than a fatal error, so a
// bad write never locks the user out of the login screen.
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read %s: %w", s.path, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil
	}
	if !sess.LoggedIn() {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session atomically (temp file + rename).
func (s *Store) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the persisted session. Used on logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
