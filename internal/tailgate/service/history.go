package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
)

// historyWriter persists log entries for display. Errors are logged and
// counted, never returned: history is not part of correlation.
type historyWriter struct {
	store   store.HistoryStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func (h historyWriter) record(ctx context.Context, e engine.LogEntry) {
	if h.store == nil {
		return
	}
	if err := h.store.RecordEvent(ctx, RecordFromEntry(e)); err != nil {
		h.metrics.HistoryErrors.Inc()
		h.logger.Warn("history write failed", zap.String("event_id", e.ID.String()), zap.Error(err))
	}
}

// RecordFromEntry maps a log entry onto the history row layout.
func RecordFromEntry(e engine.LogEntry) store.HistoryRecord {
	rec := store.HistoryRecord{
		ID:         e.ID.String(),
		OccurredAt: e.Time,
		Source:     e.Source.String(),
		Verdict:    e.Verdict.String(),
	}
	if e.Source == engine.SourceCamera {
		rec.Kind = e.Kind.String()
		rec.Camera = e.Origin
		rec.Event = e.Name
		rec.Count = e.Count
	} else {
		rec.Portal = e.Origin
		rec.Desc = e.Name
	}
	return rec
}
