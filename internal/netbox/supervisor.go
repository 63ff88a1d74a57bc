package netbox

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
)

// Supervisor owns the running Listener and replaces it when the operator
// changes the connection settings.
type Supervisor struct {
	sink   Ingester
	opts   ListenerOptions
	logger *zap.Logger

	mu      sync.Mutex
	base    context.Context
	cfg     config.NetBox
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSupervisor(cfg config.NetBox, sink Ingester, opts ListenerOptions, logger *zap.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, sink: sink, opts: opts, logger: logger}
}

// Start launches a listener with the current settings. It is a no-op when
// one is already running. Listeners started later by Update derive from ctx.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = ctx
	s.startLocked()
}

func (s *Supervisor) startLocked() {
	if s.running {
		return
	}
	base := s.base
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	done := make(chan struct{})
	l := NewListener(NewClient(s.cfg), s.sink, s.opts, s.logger)

	go func() {
		defer close(done)
		l.Run(ctx)
	}()

	s.cancel = cancel
	s.done = done
	s.running = true
}

// Stop cancels the running listener and waits for it to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if !s.running {
		return
	}
	s.cancel()
	<-s.done
	s.running = false
}

// Update stores new settings. A running listener is restarted with them.
func (s *Supervisor) Update(cfg config.NetBox) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.running
	s.stopLocked()
	cfg.Enabled = s.cfg.Enabled
	s.cfg = cfg
	if wasRunning {
		s.logger.Info("restarting netbox listener", zap.String("url", cfg.URL))
		s.startLocked()
	}
}

// Running reports whether a listener is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Config returns the current settings with the password masked.
func (s *Supervisor) Config() config.NetBox {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	cfg.Password = Mask(cfg.Password)
	return cfg
}

// Current returns the unmasked settings.
func (s *Supervisor) Current() config.NetBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Test tries a login with cfg without touching the running listener.
func (s *Supervisor) Test(ctx context.Context, cfg config.NetBox) error {
	return NewClient(cfg).Test(ctx)
}

// Mask replaces every character of a secret with '*'.
func Mask(secret string) string {
	return strings.Repeat("*", len(secret))
}
