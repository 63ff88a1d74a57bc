package netbox

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

// HealthService is the name the listener reports its state under.
const HealthService = "netbox"

const (
	DefaultQueueSize     = 256
	DefaultRetryInterval = 5 * time.Second
)

// Ingester accepts normalized access events. *service.AccessService
// implements it.
type Ingester interface {
	Ingest(ctx context.Context, req types.AccessRequest) types.AccessResponse
}

// StatusReporter is told whether the stream is currently up.
type StatusReporter interface {
	SetServing(service string, serving bool)
}

type nopStatus struct{}

func (nopStatus) SetServing(string, bool) {}

type ListenerOptions struct {
	QueueSize     int
	RetryInterval time.Duration
	Status        StatusReporter
	Metrics       *metrics.Metrics
}

// Listener keeps a NetBox event stream open and forwards every event to an
// Ingester. Reading and ingesting are decoupled by a bounded queue; when the
// queue is full new events are dropped.
type Listener struct {
	client  *Client
	sink    Ingester
	events  chan Event
	limiter *rate.Limiter
	status  StatusReporter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewListener(client *Client, sink Ingester, opts ListenerOptions, logger *zap.Logger) *Listener {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Status == nil {
		opts.Status = nopStatus{}
	}
	return &Listener{
		client:  client,
		sink:    sink,
		events:  make(chan Event, opts.QueueSize),
		limiter: rate.NewLimiter(rate.Every(opts.RetryInterval), 1),
		status:  opts.Status,
		metrics: opts.Metrics,
		logger:  logger.Named("netbox"),
	}
}

// Run connects, streams and reconnects until ctx is cancelled. Connection
// attempts are spaced by the retry interval.
func (l *Listener) Run(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		l.drain(ctx)
	}()
	defer func() {
		l.status.SetServing(HealthService, false)
		<-drained
	}()

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return
		}
		if err := l.session(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("netbox session ended", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (l *Listener) session(ctx context.Context) error {
	l.logger.Info("logging in to netbox", zap.String("url", l.client.cfg.URL))
	session, err := l.client.Login(ctx)
	if err != nil {
		return err
	}

	l.status.SetServing(HealthService, true)
	defer l.status.SetServing(HealthService, false)

	l.logger.Info("netbox event stream started")
	return l.client.Stream(ctx, session, l.enqueue)
}

func (l *Listener) enqueue(ev Event) {
	select {
	case l.events <- ev:
	default:
		if l.metrics != nil {
			l.metrics.Dropped.WithLabelValues("netbox").Inc()
		}
		l.logger.Warn("netbox queue full, dropping event",
			zap.String("portal", ev.Portal),
			zap.String("desc", ev.Desc))
	}
}

func (l *Listener) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			l.sink.Ingest(ctx, types.AccessRequest{
				Desc:      ev.Desc,
				Portal:    ev.Portal,
				Timestamp: ev.Received.Format(time.RFC3339Nano),
			})
		}
	}
}
