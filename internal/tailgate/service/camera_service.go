package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/alert"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

const (
	defaultCamera    = "<unknown>"
	defaultEventName = "<unnamed>"
)

// Notifier receives tailgate alerts. *alert.Dispatcher implements it.
type Notifier interface {
	Notify(a alert.Alert)
}

type CameraService struct {
	correlator *engine.Correlator
	history    historyWriter
	alerts     Notifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewCameraService(c *engine.Correlator, hs store.HistoryStore, alerts Notifier, m *metrics.Metrics, logger *zap.Logger) *CameraService {
	logger = logger.Named("camera")
	return &CameraService{
		correlator: c,
		history:    historyWriter{store: hs, metrics: m, logger: logger},
		alerts:     alerts,
		metrics:    m,
		logger:     logger,
	}
}

func (s *CameraService) Ingest(ctx context.Context, req types.CameraRequest) types.CameraResponse {
	kind := ClassifyCamera(req.EventType)
	ev := engine.CameraEvent{
		Kind:      kind,
		Time:      parseOptionalTimestamp(req.Timestamp),
		CameraID:  defaultString(req.CameraName, defaultCamera),
		EventName: defaultString(req.EventName, defaultEventName),
		Caption:   req.EventCaption,
	}
	if kind == engine.CameraTailgating {
		ev.RequiredCount = engine.ParseRequiredCount(req.EventCaption)
	}

	res := s.correlator.OnCamera(ev)
	s.metrics.CameraEvents.WithLabelValues(kind.String()).Inc()

	// The entry carries its final verdict by now, so history gets one write.
	s.history.record(ctx, res.Entry)

	resp := types.CameraResponse{Status: "ok"}
	switch kind {
	case engine.CameraLineCrossing:
		n := res.PeopleCount
		resp.PeopleCount = &n
		s.logger.Info("line crossing", zap.String("camera", ev.CameraID), zap.Int("people_count", n))

	case engine.CameraTailgating:
		resp.Classification = res.Verdict.String()
		s.metrics.Verdicts.WithLabelValues(res.Verdict.String()).Inc()
		s.logger.Info("tailgating check",
			zap.String("camera", ev.CameraID),
			zap.String("event", ev.EventName),
			zap.Int("required", ev.RequiredCount),
			zap.String("verdict", res.Verdict.String()))
		if res.Verdict == engine.VerdictTailgate && s.alerts != nil {
			s.alerts.Notify(alert.Alert{
				ID:            res.Entry.ID.String(),
				OccurredAt:    res.Entry.Time,
				Camera:        ev.CameraID,
				Event:         ev.EventName,
				Caption:       ev.Caption,
				RequiredCount: ev.RequiredCount,
				WindowSeconds: s.correlator.Window().Seconds(),
				Verdict:       res.Verdict.String(),
			})
		}

	default:
		s.logger.Debug("camera event ignored", zap.String("event_type", req.EventType))
	}
	return resp
}
