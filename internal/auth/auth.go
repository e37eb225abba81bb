// Package auth supplies the bearer token used to authenticate the
// streaming session and REST calls.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// TokenKey is the store key holding the session token.
const TokenKey = "access_token"

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("no access token")

// Provider yields the current bearer token.
type Provider interface {
	// Token returns the token and whether one is available.
	Token() (string, bool)

	// LoggedIn reports whether a token is available.
	LoggedIn() bool
}

// StaticProvider is a fixed token, typically from config or the environment.
type StaticProvider string

func (p StaticProvider) Token() (string, bool) {
	return string(p), p != ""
}

func (p StaticProvider) LoggedIn() bool {
	return p != ""
}

// FileStore is a small persistent key-value credential store backed by a
// YAML file. Writes replace the file atomically and keep it private (0600).
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// OpenFileStore loads the store at path. A missing file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("token file path is required")
	}

	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Put stores value under key and persists the store.
func (s *FileStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.persistLocked(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key and persists the store. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.persistLocked(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// SaveToken stores the session token.
func (s *FileStore) SaveToken(token string) error {
	if token == "" {
		return ErrNoToken
	}
	return s.Put(TokenKey, token)
}

// ClearToken forgets the session token.
func (s *FileStore) ClearToken() error {
	return s.Delete(TokenKey)
}

// Token implements Provider.
func (s *FileStore) Token() (string, bool) {
	v, ok := s.Get(TokenKey)
	return v, ok && v != ""
}

// LoggedIn implements Provider.
func (s *FileStore) LoggedIn() bool {
	_, ok := s.Token()
	return ok
}

func (s *FileStore) persistLocked() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Chain returns the first provider that has a token.
type Chain []Provider

func (c Chain) Token() (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if tok, ok := p.Token(); ok {
			return tok, true
		}
	}
	return "", false
}

func (c Chain) LoggedIn() bool {
	_, ok := c.Token()
	return ok
}
