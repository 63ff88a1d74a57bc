package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

const (
	defaultPortal = "Test Portal"
	defaultDesc   = "Door Unlock"
)

// AccessService is the ingestion path for access-control events, shared by
// the HTTP route and the NetBox listener.
type AccessService struct {
	correlator *engine.Correlator
	history    historyWriter
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewAccessService(c *engine.Correlator, hs store.HistoryStore, m *metrics.Metrics, logger *zap.Logger) *AccessService {
	logger = logger.Named("access")
	return &AccessService{
		correlator: c,
		history:    historyWriter{store: hs, metrics: m, logger: logger},
		metrics:    m,
		logger:     logger,
	}
}

func (s *AccessService) Ingest(ctx context.Context, req types.AccessRequest) types.AccessResponse {
	desc := defaultString(req.Desc, defaultDesc)
	portal := defaultString(req.Portal, defaultPortal)
	unlock, lock := ClassifyAccess(desc)

	res := s.correlator.OnAccess(engine.AccessNotice{
		Time:        parseOptionalTimestamp(req.Timestamp),
		Portal:      portal,
		Description: desc,
		Unlock:      unlock,
		Lock:        lock,
	})

	s.observe(unlock, lock)
	s.history.record(ctx, res.Entry)

	s.logger.Info("access event",
		zap.String("portal", portal),
		zap.String("desc", desc),
		zap.Bool("unlock", unlock),
		zap.Bool("lock", lock),
		zap.Int("people_count", res.PeopleCount))

	return types.AccessResponse{
		Status:  "ok",
		Message: fmt.Sprintf("Test access event logged: %s", desc),
	}
}

func (s *AccessService) observe(unlock, lock bool) {
	switch {
	case unlock:
		s.metrics.AccessEvents.WithLabelValues("unlock").Inc()
	case lock:
		s.metrics.AccessEvents.WithLabelValues("lock").Inc()
	default:
		s.metrics.AccessEvents.WithLabelValues("other").Inc()
	}
}
