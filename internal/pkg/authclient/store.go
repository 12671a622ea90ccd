package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials is the cached {token, user} pair of a signed-in session
type Credentials struct {
	Token Token `json:"token"`
	User  *User `json:"user"`
}

// Store persists credentials between runs
type Store interface {
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}

// FileStore keeps credentials in a JSON file readable only by the owner
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns nil when nothing has been saved
func (s *FileStore) Load() (*Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.Token.AccessToken == "" {
		return nil, nil
	}
	return &creds, nil
}

// Save replaces the file atomically
func (s *FileStore) Save(creds *Credentials) error {
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the file
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// MemoryStore keeps credentials in process memory
type MemoryStore struct {
	creds *Credentials
}

var _ Store = (*MemoryStore)(nil)

// Load implements Store
func (s *MemoryStore) Load() (*Credentials, error) { return s.creds, nil }

// Save implements Store
func (s *MemoryStore) Save(creds *Credentials) error {
	c := *creds
	s.creds = &c
	return nil
}

// Clear implements Store
func (s *MemoryStore) Clear() error {
	s.creds = nil
	return nil
}
