package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var cleanKeyRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Store is a durable key/value store backed by JSON files in a single
// directory. Reads of absent or corrupt documents yield an empty document;
// writes replace the whole document.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a store rooted at dir. The directory is created lazily on
// first access.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0755)
}

func cleanKey(key string) string {
	return cleanKeyRe.ReplaceAllString(key, "")
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, cleanKey(key)+".json")
}

// Read retrieves the raw document for key, or nil if it does not exist.
func (s *Store) Read(key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("storage: ensure dir: %w", err)
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return json.RawMessage(data), nil
}

// Write stores the raw document for key, overwriting any previous value.
func (s *Store) Write(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("storage: ensure dir: %w", err)
	}

	// Pretty-print for readability
	var parsed interface{}
	if err := json.Unmarshal(value, &parsed); err == nil {
		if pretty, err := json.MarshalIndent(parsed, "", "  "); err == nil {
			value = pretty
		}
	}

	if err := os.WriteFile(s.path(key), value, 0644); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

// WriteJSON marshals value and stores it under key.
func (s *Store) WriteJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", key, err)
	}
	return s.Write(key, json.RawMessage(data))
}

// ReadJSON unmarshals the document for key into target. Absent or corrupt
// documents leave target untouched and return nil: callers always start from
// an empty document, never from a read error.
func (s *Store) ReadJSON(key string, target interface{}) error {
	data, err := s.Read(key)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil
	}
	return nil
}
