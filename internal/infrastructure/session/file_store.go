// Package session persists mutable session state (working directory,
// preferences) as a flat key-value JSON document. Last write wins; there are
// no transactional guarantees.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/pkg/filesystem"
	"github.com/doeshing/aish/internal/ports"
)

// DefaultPath returns the session file location under the user's home.
func DefaultPath() string {
	return filepath.Join(filesystem.UserHomeDir(), ".aish", "session.json")
}

// FileStore is a file-backed ports.SessionStore.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore opens (or initializes) the store at path. A missing or empty
// file yields an empty store; a corrupt file is an error rather than silent
// data loss.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultPath()
	}
	store := &FileStore{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store.values); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	return store, nil
}

// Get implements ports.SessionStore.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Set implements ports.SessionStore, persisting immediately.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

// flush writes the document; caller holds the lock.
func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, domain.SecureFilePermissions); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory ports.SessionStore for tests and ephemeral
// runs.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Get implements ports.SessionStore.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Set implements ports.SessionStore.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

var (
	_ ports.SessionStore = (*FileStore)(nil)
	_ ports.SessionStore = (*MemoryStore)(nil)
)
