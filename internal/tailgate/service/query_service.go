package service

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

// statusLimit bounds both the recent log view and history reads.
const statusLimit = engine.DefaultLogCapacity

type QueryService struct {
	correlator *engine.Correlator
	settings   *Settings
	history    store.HistoryStore
	retention  time.Duration
	now        func() time.Time
}

// NewQueryService builds the read side. retention <= 0 keeps every record
// in reach, matching a pruner that never deletes.
func NewQueryService(c *engine.Correlator, settings *Settings, hs store.HistoryStore, retention time.Duration) *QueryService {
	return &QueryService{
		correlator: c,
		settings:   settings,
		history:    hs,
		retention:  retention,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Status reports the in-memory recent log and counters.
func (s *QueryService) Status() types.StatusResponse {
	st := s.correlator.Status(statusLimit, s.retention)
	events := make([]types.EventView, 0, len(st.Events))
	for _, e := range st.Events {
		events = append(events, ViewFromRecord(RecordFromEntry(e)))
	}
	return types.StatusResponse{
		Events:      events,
		PeopleCount: st.PeopleCount,
		Window:      st.WindowSeconds,
		Mode:        s.settings.Mode(),
	}
}

// History reads the durable history within the retention period.
func (s *QueryService) History(ctx context.Context) (types.HistoryResponse, error) {
	if s.history == nil {
		return types.HistoryResponse{Events: []types.EventView{}}, nil
	}
	var since time.Time
	if s.retention > 0 {
		since = s.now().Add(-s.retention)
	}
	recs, err := s.history.ListRecent(ctx, since, statusLimit)
	if err != nil {
		return types.HistoryResponse{}, err
	}
	events := make([]types.EventView, 0, len(recs))
	for _, r := range recs {
		events = append(events, ViewFromRecord(r))
	}
	return types.HistoryResponse{Events: events}, nil
}

func ViewFromRecord(r store.HistoryRecord) types.EventView {
	return types.EventView{
		ID:      r.ID,
		Type:    r.Source,
		Kind:    r.Kind,
		Time:    r.OccurredAt.Format(time.RFC3339Nano),
		Portal:  r.Portal,
		Desc:    r.Desc,
		Camera:  r.Camera,
		Event:   r.Event,
		Count:   r.Count,
		Verdict: r.Verdict,
	}
}
