package service_test

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/alert"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/service"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store/memory"
)

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (n *fakeNotifier) Notify(a alert.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
}

func (n *fakeNotifier) Alerts() []alert.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alert.Alert(nil), n.alerts...)
}

type harness struct {
	correlator *engine.Correlator
	history    *memory.HistoryStore
	notifier   *fakeNotifier
	metrics    *metrics.Metrics
	settings   *service.Settings
	access     *service.AccessService
	camera     *service.CameraService
	query      *service.QueryService
}

// newHarness wires the services on in-memory stores with a 10s window.
func newHarness() *harness {
	h := &harness{
		correlator: engine.NewCorrelator(10),
		history:    memory.NewHistoryStore(),
		notifier:   &fakeNotifier{},
		metrics:    metrics.New(),
	}
	logger := zap.NewNop()
	h.metrics.Track(h.correlator.Counter().Snapshot, h.correlator.Window().Seconds)
	h.settings = service.NewSettings(h.correlator.Window(), service.ModeTailgating)
	h.access = service.NewAccessService(h.correlator, h.history, h.metrics, logger)
	h.camera = service.NewCameraService(h.correlator, h.history, h.notifier, h.metrics, logger)
	h.query = service.NewQueryService(h.correlator, h.settings, h.history, 7*24*time.Hour)
	return h
}
