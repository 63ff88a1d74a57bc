package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alert is published when a camera event is classified as tailgating.
type Alert struct {
	ID            string    `json:"id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Camera        string    `json:"camera"`
	Event         string    `json:"event"`
	Caption       string    `json:"caption"`
	RequiredCount int       `json:"required_count"`
	WindowSeconds int       `json:"window_seconds"`
	Verdict       string    `json:"verdict"`
}

// Sink delivers an alert to one external system.
type Sink interface {
	Name() string
	Publish(ctx context.Context, a Alert) error
}

const (
	defaultQueueSize   = 128
	defaultSendTimeout = 5 * time.Second
)

// Dispatcher fans alerts out to sinks from a single background goroutine.
// Notify never blocks the caller; alerts are dropped when the queue is full.
type Dispatcher struct {
	sinks     []Sink
	logger    *zap.Logger
	queue     chan Alert
	timeout   time.Duration
	onDropped func()

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

type DispatcherOptions struct {
	QueueSize   int
	SendTimeout time.Duration
	// OnDropped is called for every alert Notify could not queue.
	OnDropped func()
}

func NewDispatcher(logger *zap.Logger, opts DispatcherOptions, sinks ...Sink) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.OnDropped == nil {
		opts.OnDropped = func() {}
	}
	return &Dispatcher{
		sinks:     sinks,
		logger:    logger.Named("alerts"),
		queue:     make(chan Alert, opts.QueueSize),
		timeout:   opts.SendTimeout,
		onDropped: opts.OnDropped,
		done:      make(chan struct{}),
	}
}

// Enabled reports whether any sink is configured.
func (d *Dispatcher) Enabled() bool { return len(d.sinks) > 0 }

// Start runs the delivery loop until ctx is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		ctx, d.cancel = context.WithCancel(ctx)
		go d.loop(ctx)
	})
}

// Stop ends the loop and waits for it. Queued alerts not yet sent are dropped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel == nil {
			close(d.done)
			return
		}
		d.cancel()
		<-d.done
	})
}

func (d *Dispatcher) Notify(a Alert) {
	if !d.Enabled() {
		return
	}
	select {
	case d.queue <- a:
	default:
		d.onDropped()
		d.logger.Warn("alert queue full, dropping alert", zap.String("alert_id", a.ID))
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-d.queue:
			d.deliver(ctx, a)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, a Alert) {
	for _, s := range d.sinks {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Publish(sendCtx, a)
		cancel()
		if err != nil {
			d.logger.Error("alert publish failed",
				zap.String("sink", s.Name()),
				zap.String("alert_id", a.ID),
				zap.Error(err))
			continue
		}
		d.logger.Debug("alert published", zap.String("sink", s.Name()), zap.String("alert_id", a.ID))
	}
}
