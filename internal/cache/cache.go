// Package cache provides a TTL response cache over the persistent key-value
// store. Entries expire lazily on read or eagerly via ClearExpired; expired
// reads and never-cached reads both return nil, which callers treat as
// "must fetch fresh".
package cache

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ajopay/ajo-cli/internal/kv"
)

const (
	// Prefix namespaces cache entries inside the shared kv store.
	Prefix = "@cache:"

	// DefaultTTL is the response cache lifetime when none is given.
	DefaultTTL = 5 * time.Minute
)

// Entry is the stored envelope. Timestamp and TTL are epoch/duration
// milliseconds to match the wire format persisted by the original client.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	TTL       int64           `json:"ttl"`
}

func (e *Entry) expiredAt(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.TTL
}

// Cache is a TTL-keyed response cache.
type Cache struct {
	store *kv.Store
	now   func() time.Time
}

// New creates a cache over the given store.
func New(store *kv.Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Key derives the cache key for a request.
func Key(method, endpoint string) string {
	return method + ":" + endpoint
}

// Set stores data under key for ttl (DefaultTTL if ttl <= 0).
func (c *Cache) Set(key string, data json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entry := Entry{
		Data:      data,
		Timestamp: c.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	}
	return c.store.Set(Prefix+key, entry)
}

// Get returns the cached data for key, or nil on miss. An expired entry is
// deleted as a side effect and reported as a miss.
func (c *Cache) Get(key string) json.RawMessage {
	entry, ok := c.load(key)
	if !ok {
		return nil
	}
	if entry.expiredAt(c.now()) {
		_ = c.store.Delete(Prefix + key)
		return nil
	}
	return entry.Data
}

// GetStale returns the cached data for key ignoring TTL. Used as the offline
// fallback when fresh data is unobtainable.
func (c *Cache) GetStale(key string) json.RawMessage {
	entry, ok := c.load(key)
	if !ok {
		return nil
	}
	return entry.Data
}

func (c *Cache) load(key string) (*Entry, bool) {
	var entry Entry
	found, err := c.store.Get(Prefix+key, &entry)
	if err != nil || !found {
		return nil, false
	}
	return &entry, true
}

// Remove deletes the entry for key.
func (c *Cache) Remove(key string) error {
	return c.store.Delete(Prefix + key)
}

// Clear drops every cache entry.
func (c *Cache) Clear() error {
	return c.store.Clear(Prefix)
}

// ClearExpired sweeps all entries and drops any whose age exceeds its TTL.
func (c *Cache) ClearExpired() error {
	keys, err := c.store.Keys(Prefix)
	if err != nil {
		return err
	}
	now := c.now()
	for _, fullKey := range keys {
		var entry Entry
		found, err := c.store.Get(fullKey, &entry)
		if err != nil || !found {
			continue
		}
		if entry.expiredAt(now) {
			if err := c.store.Delete(fullKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// InvalidateSegment drops every entry whose key contains segment. Mutations
// pass the endpoint's first path segment, so a POST to /groups/g1/join
// invalidates all cached GETs under /groups. Coarse on purpose.
func (c *Cache) InvalidateSegment(segment string) error {
	if segment == "" {
		return nil
	}
	keys, err := c.store.Keys(Prefix)
	if err != nil {
		return err
	}
	for _, fullKey := range keys {
		if strings.Contains(strings.TrimPrefix(fullKey, Prefix), segment) {
			if err := c.store.Delete(fullKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// FirstSegment extracts the first path segment of an endpoint:
// "/groups/g1/join" yields "groups".
func FirstSegment(endpoint string) string {
	trimmed := strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
