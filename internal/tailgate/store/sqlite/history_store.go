package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/BrandonDHaskell/tailgate/server/internal/db"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
)

type HistoryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewHistoryStore(db *sql.DB, writer *dbpkg.Worker) *HistoryStore {
	return &HistoryStore{db: db, writer: writer}
}

// RecordEvent inserts rec. Re-recording an ID replaces the earlier row, so a
// verdict written after the first insert simply overwrites it.
func (s *HistoryStore) RecordEvent(ctx context.Context, rec store.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	occurredMs := rec.OccurredAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO events(
  event_id, occurred_at_ms, source, kind, portal, description,
  camera, event_name, count_caption, verdict
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id) DO UPDATE SET
  verdict = excluded.verdict;
`,
			rec.ID, occurredMs, rec.Source, rec.Kind, rec.Portal, rec.Desc,
			rec.Camera, rec.Event, rec.Count, rec.Verdict,
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

// ListRecent reads directly from the pool; the writer is only needed for
// mutations.
func (s *HistoryStore) ListRecent(ctx context.Context, since time.Time, limit int) ([]store.HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, occurred_at_ms, source, kind, portal, description,
       camera, event_name, count_caption, verdict
FROM events
WHERE occurred_at_ms >= ?
ORDER BY occurred_at_ms DESC, rowid DESC
LIMIT ?;
`, since.UTC().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent query: %w", err)
	}
	defer rows.Close()

	var out []store.HistoryRecord
	for rows.Next() {
		var (
			rec        store.HistoryRecord
			occurredMs int64
		)
		if err := rows.Scan(
			&rec.ID, &occurredMs, &rec.Source, &rec.Kind, &rec.Portal, &rec.Desc,
			&rec.Camera, &rec.Event, &rec.Count, &rec.Verdict,
		); err != nil {
			return nil, fmt.Errorf("ListRecent scan: %w", err)
		}
		rec.OccurredAt = time.UnixMilli(occurredMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecent rows: %w", err)
	}
	return out, nil
}

// PruneOlderThan deletes rows with occurred_at_ms before cutoff and returns
// the number deleted. Uses idx_events_time.
func (s *HistoryStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE occurred_at_ms < ?;`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
