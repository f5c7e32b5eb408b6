// Package auth provides credential storage, the in-memory session, and the
// single-flight token refresh coordinator.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "ajo"
	keyringKey  = "ajo::tokens"
)

// Tokens holds the access/refresh token pair. These are the only values in
// the client requiring confidentiality at rest.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id,omitempty"`
}

// Store handles token storage, preferring the system keychain.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

// NewStore creates a token store. Falls back to a 0600 file under
// fallbackDir when the keyring is unavailable or AJO_NO_KEYRING is set.
func NewStore(fallbackDir string) *Store {
	if os.Getenv("AJO_NO_KEYRING") != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir}
	}

	// Test if keyring is available
	testKey := "ajo::test"
	err := keyring.Set(serviceName, testKey, "test")
	if err == nil {
		_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, tokens stored in plaintext at %s\n",
		filepath.Join(fallbackDir, "credentials.json"))
	return &Store{useKeyring: false, fallbackDir: fallbackDir}
}

// Load retrieves the stored tokens.
func (s *Store) Load() (*Tokens, error) {
	if s.useKeyring {
		data, err := keyring.Get(serviceName, keyringKey)
		if err != nil {
			return nil, fmt.Errorf("tokens not found: %w", err)
		}
		var tokens Tokens
		if err := json.Unmarshal([]byte(data), &tokens); err != nil {
			return nil, fmt.Errorf("invalid stored tokens: %w", err)
		}
		return &tokens, nil
	}
	return s.loadFromFile()
}

// Save stores the tokens.
func (s *Store) Save(tokens *Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	if s.useKeyring {
		return keyring.Set(serviceName, keyringKey, string(data))
	}
	return s.saveToFile(data)
}

// Delete removes the stored tokens. Missing tokens are not an error.
func (s *Store) Delete() error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, keyringKey)
		if err != nil && err != keyring.ErrNotFound {
			return err
		}
		return nil
	}
	err := os.Remove(s.credentialsPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

func (s *Store) credentialsPath() string {
	return filepath.Join(s.fallbackDir, "credentials.json")
}

func (s *Store) loadFromFile() (*Tokens, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if err != nil {
		return nil, fmt.Errorf("tokens not found: %w", err)
	}
	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("invalid stored tokens: %w", err)
	}
	return &tokens, nil
}

func (s *Store) saveToFile(data []byte) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return err
	}

	// Atomic write with randomized temp file name
	tmpFile, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.credentialsPath()); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
