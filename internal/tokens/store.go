package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store maps account keys to their current bearer token and mirrors every change to a JSON file.
// Writes replace the whole file; there is never more than one token per account.
type Store struct {
	mu     sync.RWMutex
	path   string
	tokens map[string]string
}

// OpenStore loads the token file at path; a missing file yields an empty store
func OpenStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		tokens: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}

	return s, nil
}

// Get returns the stored token for an account key
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[key]
	return token, ok && token != ""
}

// Set overwrites the token for key and persists the full map immediately
func (s *Store) Set(key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = token
	return s.persistLocked()
}

// Len returns the number of stored tokens
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// persistLocked rewrites the token file through a temp file and rename
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}
