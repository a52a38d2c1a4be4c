package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Credentials is the locally stored identity of the logged-in user.
type Credentials struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

var ErrNotLoggedIn = errors.New("not logged in")

// Store persists credentials in a JSON file, the desktop analog of the
// original client's browser storage.
type Store struct {
	path string
	log  *log.Logger
	mu   sync.Mutex
}

func NewStore(path string, logger *log.Logger) *Store {
	return &Store{
		path: path,
		log:  logger,
	}
}

func (s *Store) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	s.log.Printf("auth: saved credentials for %q", creds.Username)
	return nil
}

func (s *Store) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNotLoggedIn
		}
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.UserId == 0 {
		return Credentials{}, ErrNotLoggedIn
	}

	return creds, nil
}

func (s *Store) IsLoggedIn() bool {
	_, err := s.Load()
	return err == nil
}

// Clear removes stored credentials. Clearing an empty store is a
// no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}

	return nil
}
