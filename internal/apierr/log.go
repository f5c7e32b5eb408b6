package apierr

import (
	"sync"
	"time"
)

// DefaultLogSize is the number of entries the error log retains.
const DefaultLogSize = 100

// LogEntry is one recorded failure.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Context string    `json:"context"`
	Message string    `json:"message"`
	Status  int       `json:"status"`
	Code    string    `json:"code"`
}

// Log is a bounded in-memory ring of recent failures for diagnostics.
// Pure bookkeeping: no I/O.
type Log struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
}

// NewLog creates a log keeping the last max entries (DefaultLogSize if <= 0).
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultLogSize
	}
	return &Log{max: max}
}

// Record appends an entry, evicting the oldest once full.
func (l *Log) Record(context string, err error) {
	e := From(err)
	if e == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, LogEntry{
		Time:    time.Now(),
		Context: context,
		Message: e.Message,
		Status:  e.Status,
		Code:    e.Code,
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear drops all recorded entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
