// Package offline provides the durable queue of mutating requests that were
// attempted while disconnected, replayed in order once connectivity returns.
package offline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// QueueFileName is the queue file name inside the store directory.
const QueueFileName = "queue.json"

// Action is one pending mutating request.
type Action struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"` // POST, PUT or DELETE
	Endpoint  string          `json:"endpoint"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	Retries   int             `json:"retries"`
}

// Store persists the queue as a JSON array with cross-process file locking.
// Locking is fail-open with a short timeout: a stuck lock holder must not
// hang the CLI, and the queue tolerates a rare lost append better than a
// hung command.
type Store struct {
	dir string
}

// lockTimeout is the maximum wait for the file lock before proceeding
// without it.
const lockTimeout = 100 * time.Millisecond

// NewStore creates a queue store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the queue file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, QueueFileName)
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, ".queue.lock")
}

func (s *Store) acquireLock() *flock.Flock {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil
	}
	fl := flock.New(s.lockPath())

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil || !locked {
		return nil
	}
	return fl
}

func release(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

// Load reads the persisted queue. A missing or corrupted file yields an
// empty queue.
func (s *Store) Load() ([]Action, error) {
	fl := s.acquireLock()
	defer release(fl)
	return s.loadLocked()
}

func (s *Store) loadLocked() ([]Action, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		// Corrupted queue file: start over rather than wedge every command.
		return nil, nil //nolint:nilerr
	}
	return actions, nil
}

// Save replaces the persisted queue.
func (s *Store) Save(actions []Action) error {
	fl := s.acquireLock()
	defer release(fl)
	return s.saveLocked(actions)
}

func (s *Store) saveLocked(actions []Action) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	if actions == nil {
		actions = []Action{}
	}
	data, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path())
}

// Update applies fn to the persisted queue as one read-modify-write under a
// single lock acquisition. Callers that load, compute, and save separately
// would erase actions appended in between; this is the safe path for any
// change derived from earlier state.
func (s *Store) Update(fn func([]Action) []Action) error {
	fl := s.acquireLock()
	defer release(fl)

	actions, err := s.loadLocked()
	if err != nil {
		return err
	}
	return s.saveLocked(fn(actions))
}

// Append adds an action under a single lock acquisition, so two processes
// enqueueing concurrently don't lose writes.
func (s *Store) Append(action Action) error {
	fl := s.acquireLock()
	defer release(fl)

	actions, err := s.loadLocked()
	if err != nil {
		return err
	}
	return s.saveLocked(append(actions, action))
}
