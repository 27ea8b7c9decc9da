// Package history keeps the append-only, timestamp-ordered record of a
// session: messages, files, and link open/close events.
package history

import (
	"sync"
	"time"

	"github.com/adamgoose/age-chat/internal/domain"
)

// Log is an append-only sequence of stamped events. Append is the only
// mutator; readers may call Snapshot, Since and Changed concurrently.
type Log struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries []domain.HistoryEntry
	changed chan struct{}
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New returns an empty Log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now, changed: make(chan struct{})}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append stamps event with the local receipt time and stores it.
// Timestamps never go backwards, even if the wall clock does.
func (l *Log) Append(event domain.HistoryEvent) domain.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if n := len(l.entries); n > 0 && ts.Before(l.entries[n-1].Timestamp) {
		ts = l.entries[n-1].Timestamp
	}
	entry := domain.HistoryEntry{
		Seq:       uint64(len(l.entries)) + 1,
		Timestamp: ts,
		Event:     event,
	}
	l.entries = append(l.entries, entry)

	close(l.changed)
	l.changed = make(chan struct{})
	return entry
}

// Snapshot returns every entry appended so far, in append order.
func (l *Log) Snapshot() []domain.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the entries with a sequence number greater than seq.
func (l *Log) Since(seq uint64) []domain.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq >= uint64(len(l.entries)) {
		return nil
	}
	out := make([]domain.HistoryEntry, uint64(len(l.entries))-seq)
	copy(out, l.entries[seq:])
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Changed returns a channel that is closed by the next Append.
func (l *Log) Changed() <-chan struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.changed
}

// Compile-time assertion that Log implements domain.HistoryLog.
var _ domain.HistoryLog = (*Log)(nil)
