package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
)

// HistoryStore keeps history in process memory. It is used in tests and when
// the sqlite database is disabled.
type HistoryStore struct {
	mu      sync.Mutex
	records []store.HistoryRecord
	index   map[string]int
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{index: make(map[string]int)}
}

func (s *HistoryStore) RecordEvent(_ context.Context, rec store.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[rec.ID]; ok {
		s.records[i].Verdict = rec.Verdict
		return nil
	}
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

func (s *HistoryStore) ListRecent(_ context.Context, since time.Time, limit int) ([]store.HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	out := make([]store.HistoryRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		if !s.records[i].OccurredAt.Before(since) {
			out = append(out, s.records[i])
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *HistoryStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if r.OccurredAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept

	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
	return deleted, nil
}

// Records returns a copy of everything stored, oldest first. Test-only helper.
func (s *HistoryStore) Records() []store.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.HistoryRecord, len(s.records))
	copy(out, s.records)
	return out
}
