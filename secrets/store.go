// Package secrets defines the capability interface for application
// credentials (app id, private key) and two reference backends.
//
// Platform front-ends substitute their own implementations — keychain on
// desktop, environment on servers — the engine only ever sees get/set by
// logical key name.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Well-known logical key names used by the engine.
const (
	KeyAppID      = "app_id"
	KeyPrivateKey = "private_key"
	KeyAPIBase    = "api_base"
)

// ErrNotFound is returned when a logical key has no stored value.
var ErrNotFound = errors.New("secret not found")

// ErrReadOnly is returned by backends that cannot accept writes.
var ErrReadOnly = errors.New("secret store is read-only")

// Store is the secret-store capability: simple get/set/delete by logical
// key name. Implementations choose their own backing medium.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileStore keeps one file per logical key under a directory, mode 0600.
// The plain-file fallback for platforms without a keychain.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore describes the newfilestore operation and its observable behavior.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("secret directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secret directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid secret key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get returns the stored value, or ErrNotFound.
func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores the value, replacing any previous one.
func (s *FileStore) Set(key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(path, value, 0o600)
}

// Delete removes the value; deleting an absent key is not an error.
func (s *FileStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// EnvStore resolves secrets from the process environment using the
// ENABLE_* contract: app_id from ENABLE_APP_ID, api_base from
// ENABLE_API_BASE, private_key from the file named by
// ENABLE_PRIVATE_KEY_PATH. It is read-only.
type EnvStore struct{}

var envKeys = map[string]string{
	KeyAppID:   "ENABLE_APP_ID",
	KeyAPIBase: "ENABLE_API_BASE",
}

// Get resolves a logical key from the environment, or ErrNotFound.
func (EnvStore) Get(key string) ([]byte, error) {
	if key == KeyPrivateKey {
		path := strings.TrimSpace(os.Getenv("ENABLE_PRIVATE_KEY_PATH"))
		if path == "" {
			return nil, fmt.Errorf("%w: ENABLE_PRIVATE_KEY_PATH not set", ErrNotFound)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		return data, nil
	}

	env, ok := envKeys[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	value := strings.TrimSpace(os.Getenv(env))
	if value == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNotFound, env)
	}
	return []byte(value), nil
}

// Set implements Store; the environment backend rejects writes.
func (EnvStore) Set(string, []byte) error { return ErrReadOnly }

// Delete implements Store; the environment backend rejects writes.
func (EnvStore) Delete(string) error { return ErrReadOnly }
