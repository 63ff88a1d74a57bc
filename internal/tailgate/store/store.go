package store

import (
	"context"
	"time"
)

// HistoryRecord is one persisted row of the display history. It mirrors a
// recent-events log entry once its verdict is final.
type HistoryRecord struct {
	ID         string
	OccurredAt time.Time
	Source     string // "access" | "camera"
	Kind       string // camera kind: "linecrossing" | "tailgating" | "other"
	Portal     string
	Desc       string
	Camera     string
	Event      string
	Count      string
	Verdict    string
}

// HistoryStore persists ingested events for display. Correlation never reads
// from it.
type HistoryStore interface {
	RecordEvent(ctx context.Context, rec HistoryRecord) error
	// ListRecent returns records at or after since, newest first, at most limit.
	ListRecent(ctx context.Context, since time.Time, limit int) ([]HistoryRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
