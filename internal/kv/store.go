// Package kv provides a small persistent key-value store backed by one file
// per key. It is the durable collaborator behind the response cache and
// non-secret session flags.
package kv

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists values as JSON files under a directory. Keys are arbitrary
// strings; on disk each key becomes <sha256(key)>.json with the original key
// recorded inside the envelope so prefix scans work.
type Store struct {
	dir string
	mu  sync.RWMutex
}

type envelope struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// Set stores value under key. value must be JSON-marshalable.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope{Key: key, Value: raw})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}

	// Atomic write via temp file.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get unmarshals the value stored under key into out.
// Returns false if the key is absent or the file is unreadable.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Corrupted entry: treat as absent rather than failing the caller.
		return false, nil
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the value stored under key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Keys returns all stored keys that start with prefix.
func (s *Store) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if strings.HasPrefix(env.Key, prefix) {
			keys = append(keys, env.Key)
		}
	}
	return keys, nil
}

// Clear removes every key that starts with prefix.
func (s *Store) Clear(prefix string) error {
	keys, err := s.Keys(prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
