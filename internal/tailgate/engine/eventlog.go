package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLogCapacity is the number of entries the recent-events log keeps.
const DefaultLogCapacity = 100

// EventLog is a bounded, most-recent-first record of ingested events. It is a
// ring buffer: once full, each Append overwrites the oldest entry.
type EventLog struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int // slot the next Append writes to
	size    int
}

func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &EventLog{entries: make([]LogEntry, capacity)}
}

// Append stores e at the front of the log and returns its ticket. A zero
// e.ID is replaced with a fresh one.
func (l *EventLog) Append(e LogEntry) Ticket {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.size < len(l.entries) {
		l.size++
	}
	return e.ID
}

// UpdateVerdict sets the verdict of the entry holding ticket. It reports
// false when the entry has already been evicted.
func (l *EventLog) UpdateVerdict(ticket Ticket, v Verdict) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < l.size; i++ {
		idx := l.slot(i)
		if l.entries[idx].ID == ticket {
			l.entries[idx].Verdict = v
			return true
		}
	}
	return false
}

// Get returns the entry holding ticket, if it is still in the log.
func (l *EventLog) Get(ticket Ticket) (LogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < l.size; i++ {
		idx := l.slot(i)
		if l.entries[idx].ID == ticket {
			return l.entries[idx], true
		}
	}
	return LogEntry{}, false
}

// Len returns the number of held entries.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Snapshot returns up to limit entries, most recent first, skipping entries
// whose Time is older than now-maxAge. limit <= 0 means no count bound and
// maxAge <= 0 means no age bound.
//
// Ordering is by arrival, so entries stamped out of order by a skewed clock
// are not re-sorted; the age filter skips them individually.
func (l *EventLog) Snapshot(now time.Time, limit int, maxAge time.Duration) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogEntry, 0, n)
	for i := 0; i < l.size && len(out) < n; i++ {
		e := l.entries[l.slot(i)]
		if maxAge > 0 && now.Sub(e.Time) > maxAge {
			continue
		}
		out = append(out, e)
	}
	return out
}

// slot maps a recency index (0 = newest) to a position in entries.
func (l *EventLog) slot(i int) int {
	c := len(l.entries)
	return ((l.next-1-i)%c + c) % c
}
